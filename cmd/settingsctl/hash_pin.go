package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lux23/settings-service/internal/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var hashPinCmd = &cobra.Command{
	Use:     "hash-pin",
	Short:   "Hash an admin PIN for admin.pin_hash",
	GroupID: "admin",
	Long:    "Read a PIN from the terminal without echo (or from stdin when piped) and print its bcrypt hash.",
	Args:    cobra.NoArgs,
	// hash-pin needs no config or database.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		pin, err := readPin(os.Stdin, os.Stderr)
		if err != nil {
			return err
		}
		hash, err := services.HashPin(pin)
		if err != nil {
			return fmt.Errorf("hashing pin: %w", err)
		}
		fmt.Println(hash)
		return nil
	},
}

func readPin(in *os.File, prompt io.Writer) (string, error) {
	var pin string
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		fmt.Fprint(prompt, "PIN: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading pin: %w", err)
		}
		pin = string(b)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading pin: %w", err)
		}
		pin = line
	}

	pin = strings.TrimSpace(pin)
	if pin == "" {
		return "", errors.New("empty pin")
	}
	return pin, nil
}
