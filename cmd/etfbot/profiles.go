package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"etfbot/internal/config"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the registered risk profiles and their target weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		profiles, err := cfg.ToProfiles()
		if err != nil {
			return err
		}

		for _, name := range profiles.Names() {
			target := profiles[name]
			symbols := make([]string, 0, len(target))
			for symbol := range target {
				symbols = append(symbols, symbol)
			}
			sort.Strings(symbols)

			fmt.Printf("%s:\n", name)
			for _, symbol := range symbols {
				fmt.Printf("  %-5s %5.1f%%\n", symbol, target[symbol]*100)
			}
		}
		return nil
	},
}
