// etfbot rebalances an ETF portfolio toward a named risk profile through
// the Alpaca brokerage API, and backtests those profiles against
// historical daily prices.
package main

import (
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "etfbot",
	Short:         "ETF portfolio rebalancing and backtesting",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.DefaultLogger = log.Logger{
			Level:  log.ParseLevel(logLevel),
			Writer: &log.ConsoleWriter{ColorOutput: true, EndWithMessage: true},
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "etfbot.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(rebalanceCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
