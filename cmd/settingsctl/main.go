package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lux23/settings-service/internal/config"
	"github.com/lux23/settings-service/internal/models"
	"github.com/lux23/settings-service/internal/services"
	"github.com/lux23/settings-service/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "settingsctl <command>",
	Short:         "Operator tool for the settings service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(logLevel)
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "settings", Title: "Settings:"},
		&cobra.Group{ID: "admin", Title: "Admin:"},
	)

	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(rotateCmd)
	rootCmd.AddCommand(hashPinCmd)
	rootCmd.AddCommand(initConfigCmd)
}

// openServices connects to the configured database and builds the store
// and rotation engine. The returned func closes the connection.
func openServices() (*services.SettingsService, *services.RotationService, func(), error) {
	db, err := models.Open(&cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := models.Migrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("migrating database: %w", err)
	}

	gate := services.NewAccessGate(cfg.Admin)
	catalog := services.NewSupportLineCatalog(cfg.SupportLines)
	settings := services.NewSettingsService(db, gate, catalog, cfg.Database.QueryTimeout)
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return settings, services.NewRotationService(settings), closeFn, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
