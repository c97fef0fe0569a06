package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rotateCmd = &cobra.Command{
	Use:     "rotate",
	Short:   "Run one rotation evaluation",
	GroupID: "settings",
	Long:    "Advance the active support line if auto-rotation is on and the interval has elapsed.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, rotation, closeDB, err := openServices()
		if err != nil {
			return err
		}
		defer closeDB()

		status, err := rotation.Evaluate(context.Background())
		if err != nil {
			return fmt.Errorf("evaluating rotation: %w", err)
		}
		return printJSON(status)
	},
}
