package main

import (
	"fmt"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"etfbot/internal/allocation"
	"etfbot/internal/backtest"
	"etfbot/internal/broker"
	"etfbot/internal/config"
	"etfbot/internal/report"
	"etfbot/pkg/types"
)

var (
	btProfile   string
	btAll       bool
	btStart     string
	btEnd       string
	btCapital   float64
	btFrequency string
	btDataDir   string
	btChart     bool
	btSnapshots bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest risk profiles against historical daily prices",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		profiles, err := cfg.ToProfiles()
		if err != nil {
			return err
		}

		start, end, frequency, err := cfg.ToBacktestRange()
		if err != nil {
			return err
		}
		if btStart != "" {
			if start, err = time.Parse("2006-01-02", btStart); err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
		}
		if btEnd != "" {
			if end, err = time.Parse("2006-01-02", btEnd); err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
		}
		if btFrequency != "" {
			if frequency, err = backtest.ParseFrequency(btFrequency); err != nil {
				return err
			}
		}
		capital := cfg.InitialCapital()
		if btCapital > 0 {
			capital = btCapital
		}

		source, err := priceSource(cfg)
		if err != nil {
			return err
		}
		engine := backtest.New(source)

		var results []types.BacktestResult
		if btAll || btProfile == "" {
			var failures map[string]error
			results, failures = engine.RunAll(cmd.Context(), profiles, start, end, capital, frequency)
			if len(results) == 0 {
				for name, ferr := range failures {
					return fmt.Errorf("profile %s: %w", name, ferr)
				}
				return fmt.Errorf("no profiles to backtest")
			}
		} else {
			target, err := profiles.Get(btProfile)
			if err != nil {
				return err
			}
			result, err := engine.Run(cmd.Context(), backtest.Params{
				Profile:        btProfile,
				Target:         target,
				Start:          start,
				End:            end,
				InitialCapital: capital,
				Frequency:      frequency,
			})
			if err != nil {
				return err
			}
			results = append(results, result)
		}

		printSummary(results)
		return export(cfg, results, profiles)
	},
}

func init() {
	backtestCmd.Flags().StringVarP(&btProfile, "profile", "p", "", "risk profile to backtest (default: all)")
	backtestCmd.Flags().BoolVar(&btAll, "all", false, "backtest every registered profile")
	backtestCmd.Flags().StringVar(&btStart, "start", "", "start date (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "end date (YYYY-MM-DD)")
	backtestCmd.Flags().Float64Var(&btCapital, "capital", 0, "initial capital in dollars")
	backtestCmd.Flags().StringVar(&btFrequency, "frequency", "", "rebalance frequency (monthly, quarterly, yearly)")
	backtestCmd.Flags().StringVar(&btDataDir, "data-dir", "", "read prices from CSV files in this directory instead of the broker API")
	backtestCmd.Flags().BoolVar(&btChart, "chart", false, "render equity-curve PNGs")
	backtestCmd.Flags().BoolVar(&btSnapshots, "snapshots", false, "include daily snapshots in the JSON export")
}

// priceSource picks CSV files when a data dir is configured, otherwise the
// Alpaca data API.
func priceSource(cfg *config.Config) (broker.HistoricalSource, error) {
	dataDir := btDataDir
	if dataDir == "" {
		dataDir = cfg.Backtest.DataDir
	}
	if dataDir != "" {
		return broker.NewCSVSource(dataDir), nil
	}
	keyID, secretKey, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}
	return broker.NewAlpacaClient(keyID, secretKey, cfg.PaperTrading()), nil
}

func printSummary(results []types.BacktestResult) {
	fmt.Printf("\n%-20s %12s %12s %12s %8s %10s\n",
		"PROFILE", "TOTAL RET", "ANNUAL RET", "VOLATILITY", "SHARPE", "MAX DD")
	for _, r := range results {
		m := r.Metrics
		fmt.Printf("%-20s %11.2f%% %11.2f%% %11.2f%% %8.2f %9.2f%%\n",
			r.Profile, m.TotalReturnPct, m.AnnualizedReturnPct, m.VolatilityPct, m.SharpeRatio, m.MaxDrawdownPct)
	}
	fmt.Println()
}

func export(cfg *config.Config, results []types.BacktestResult, profiles allocation.Profiles) error {
	dir := cfg.OutputPath()
	if _, err := report.WriteJSON(dir, results, btSnapshots || cfg.Output.Snapshots); err != nil {
		return err
	}
	if _, err := report.WriteMarkdown(dir, results, profiles); err != nil {
		return err
	}
	if btChart || cfg.Output.Chart {
		for _, result := range results {
			if _, err := report.WriteChart(dir, result); err != nil {
				log.Warn().Str("profile", result.Profile).Err(err).Msg("chart rendering failed")
			}
		}
	}
	return nil
}
