package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show",
	Short:   "Print the current settings record",
	GroupID: "settings",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, _, closeDB, err := openServices()
		if err != nil {
			return err
		}
		defer closeDB()

		record, err := settings.Get(context.Background())
		if err != nil {
			return fmt.Errorf("reading settings: %w", err)
		}
		return printJSON(record)
	},
}
