package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"etfbot/internal/config"
)

// validateCmd is a preflight check: it verifies the configuration parses,
// every profile's weights sum to 1, the backtest range is coherent, and
// broker credentials are present, without touching the broker.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and credentials without trading",
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		check := func(name string, err error) {
			if err != nil {
				fmt.Printf("  FAIL %s: %v\n", name, err)
				failed++
				return
			}
			fmt.Printf("  ok   %s\n", name)
		}

		fmt.Printf("Validating %s\n", configPath)
		cfg, err := config.Load(configPath)
		check("config file", err)
		if err != nil {
			return fmt.Errorf("validation failed")
		}

		_, profilesErr := cfg.ToProfiles()
		check("risk profiles", profilesErr)

		if cfg.RiskLevel != "" {
			profiles, err := cfg.ToProfiles()
			if err == nil {
				_, err = profiles.Get(cfg.RiskLevel)
			}
			check("risk_level", err)
		}

		_, _, _, rangeErr := cfg.ToBacktestRange()
		check("backtest range", rangeErr)

		if cfg.Backtest.DataDir != "" {
			_, statErr := os.Stat(cfg.Backtest.DataDir)
			check("data_dir", statErr)
		}

		_, _, credErr := cfg.Credentials()
		check("broker credentials", credErr)

		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		fmt.Println("Configuration looks good.")
		return nil
	},
}
