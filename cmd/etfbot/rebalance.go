package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"etfbot/internal/broker"
	"etfbot/internal/config"
	"etfbot/internal/rebalance"
)

var rebalanceProfile string

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Rebalance the brokerage account toward a risk profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		profiles, err := cfg.ToProfiles()
		if err != nil {
			return err
		}

		name := rebalanceProfile
		if name == "" {
			name = cfg.RiskLevel
		}
		if name == "" {
			return fmt.Errorf("no risk profile selected: pass --profile or set risk_level in the config")
		}
		target, err := profiles.Get(name)
		if err != nil {
			return err
		}

		keyID, secretKey, err := cfg.Credentials()
		if err != nil {
			return err
		}
		gateway := broker.NewAlpacaClient(keyID, secretKey, cfg.PaperTrading())

		report, err := rebalance.New(gateway).Rebalance(cmd.Context(), target)
		if err != nil {
			return err
		}

		fmt.Printf("\nRebalanced to %q (account value $%.2f)\n", name, report.AccountValue)
		fmt.Printf("  submitted: %d  skipped: %d  failed: %d\n", report.Submitted, report.Skipped, report.Failed)
		for _, order := range report.Orders {
			line := fmt.Sprintf("  %-5s %-4s $%+.2f", order.Symbol, order.Side, order.Amount)
			if order.Quantity > 0 {
				line += fmt.Sprintf(" (%d shares)", order.Quantity)
			}
			line += " -> " + string(order.Status)
			if order.Reason != "" {
				line += ": " + order.Reason
			}
			fmt.Println(line)
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d order(s) failed", report.Failed)
		}
		return nil
	},
}

func init() {
	rebalanceCmd.Flags().StringVarP(&rebalanceProfile, "profile", "p", "", "risk profile to rebalance toward")
}
