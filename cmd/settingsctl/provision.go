package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/lux23/settings-service/internal/services"
	"github.com/spf13/cobra"
)

var provisionOpts struct {
	alias             string
	cbu               string
	supportPhone      string
	phone             string
	lineIndex         int
	minAmount         int64
	timerSeconds      int
	createUserEnabled bool
	bonusEnabled      bool
	bonusPercentage   int
	autoRotation      bool
	intervalMinutes   int
}

var provisionCmd = &cobra.Command{
	Use:     "provision",
	Short:   "Create the settings record",
	GroupID: "settings",
	Long: `Create the singleton settings record. The server never creates it.

Exactly one of --alias or --cbu is required. When --line-index is omitted the
index is taken from the catalog entry matching --phone, or the custom entry.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, _, closeDB, err := openServices()
		if err != nil {
			return err
		}
		defer closeDB()

		candidate, err := provisionCandidate(settings.Catalog(), cmd.Flags().Changed("line-index"))
		if err != nil {
			return err
		}

		record, err := settings.Provision(context.Background(), candidate)
		if errors.Is(err, services.ErrAlreadyProvisioned) {
			return fmt.Errorf("settings already provisioned; use the admin API to change them")
		}
		if err != nil {
			return err
		}

		fmt.Println("Settings provisioned:")
		return printJSON(record)
	},
}

func provisionCandidate(catalog *services.SupportLineCatalog, explicitIndex bool) (services.ConfigurationRecord, error) {
	o := provisionOpts

	var dest services.PaymentDestination
	switch {
	case o.alias != "" && o.cbu != "":
		return services.ConfigurationRecord{}, errors.New("--alias and --cbu are mutually exclusive")
	case o.alias != "":
		dest = services.PaymentDestination{Kind: services.PaymentKindAlias, Value: o.alias}
	case o.cbu != "":
		dest = services.PaymentDestination{Kind: services.PaymentKindCBU, Value: o.cbu}
	default:
		return services.ConfigurationRecord{}, errors.New("one of --alias or --cbu is required")
	}

	index := o.lineIndex
	if !explicitIndex {
		index = catalog.IndexOfPhone(o.phone)
		if index < 0 {
			index = 0
		}
	}

	return services.ConfigurationRecord{
		MinAmount:          o.minAmount,
		TimerSeconds:       o.timerSeconds,
		CreateUserEnabled:  o.createUserEnabled,
		PaymentDestination: dest,
		BonusEnabled:       o.bonusEnabled,
		BonusPercentage:    o.bonusPercentage,
		SupportPhone:       o.supportPhone,
		LinePhone:          o.phone,
		Rotation: services.RotationSettings{
			AutoRotationEnabled: o.autoRotation,
			IntervalMinutes:     o.intervalMinutes,
			CurrentLineIndex:    index,
		},
	}, nil
}

func init() {
	f := provisionCmd.Flags()
	f.StringVar(&provisionOpts.alias, "alias", "", "payment alias (6-50 chars of [A-Za-z0-9.-])")
	f.StringVar(&provisionOpts.cbu, "cbu", "", "payment CBU (22 digits)")
	f.StringVar(&provisionOpts.supportPhone, "support-phone", "541141624225", "support contact phone")
	f.StringVar(&provisionOpts.phone, "phone", "541176067205", "selected support line phone")
	f.IntVar(&provisionOpts.lineIndex, "line-index", 0, "active support line index")
	f.Int64Var(&provisionOpts.minAmount, "min-amount", 2000, "minimum transfer amount")
	f.IntVar(&provisionOpts.timerSeconds, "timer", 30, "transfer timer in seconds (0-300)")
	f.BoolVar(&provisionOpts.createUserEnabled, "create-user", true, "allow user creation")
	f.BoolVar(&provisionOpts.bonusEnabled, "bonus", true, "enable the deposit bonus")
	f.IntVar(&provisionOpts.bonusPercentage, "bonus-percentage", 25, "bonus percentage (0-100)")
	f.BoolVar(&provisionOpts.autoRotation, "auto-rotation", false, "enable support line rotation")
	f.IntVar(&provisionOpts.intervalMinutes, "interval", 60, "rotation interval in minutes (1-1440)")
}
