package main

import (
	"fmt"
	"os"

	"github.com/lux23/settings-service/internal/config"
	"github.com/spf13/cobra"
)

var initConfigForce bool

var initConfigCmd = &cobra.Command{
	Use:     "init-config",
	Short:   "Write a default config file",
	GroupID: "admin",
	Long:    "Write the built-in defaults to --config. An existing file is kept unless --force is given.",
	Args:    cobra.NoArgs,
	// The file being written may not exist yet.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeDefaultConfig(configPath, initConfigForce)
	},
}

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func init() {
	initConfigCmd.Flags().BoolVar(&initConfigForce, "force", false, "overwrite an existing file")
}
