package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phuslu/log"

	"etfbot/internal/allocation"
	"etfbot/pkg/types"
)

// WriteMarkdown renders a comparison report of all results to
// <dir>/BACKTEST_RESULTS.md: a summary table followed by per-profile
// metrics and target allocations.
func WriteMarkdown(dir string, results []types.BacktestResult, profiles allocation.Profiles) (string, error) {
	var b strings.Builder
	b.WriteString("# Backtest Results\n\n")
	b.WriteString("Performance of each risk profile over historical daily prices.\n\n")

	if len(results) > 0 {
		first := results[0]
		fmt.Fprintf(&b, "**Backtest Period:** %s to %s\n\n",
			first.StartDate.Format("2006-01-02"), first.EndDate.Format("2006-01-02"))
		fmt.Fprintf(&b, "**Initial Capital:** $%.2f\n\n", first.InitialCapital)
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Risk Profile | Total Return | Annualized Return | Volatility | Sharpe Ratio | Max Drawdown |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range results {
		m := r.Metrics
		fmt.Fprintf(&b, "| %s | %.2f%% | %.2f%% | %.2f%% | %.2f | %.2f%% |\n",
			r.Profile, m.TotalReturnPct, m.AnnualizedReturnPct, m.VolatilityPct, m.SharpeRatio, m.MaxDrawdownPct)
	}

	b.WriteString("\n## Detailed Results\n\n")
	for _, r := range results {
		m := r.Metrics
		fmt.Fprintf(&b, "### %s\n\n", r.Profile)
		fmt.Fprintf(&b, "**Final Portfolio Value:** $%.2f\n\n", r.FinalValue)
		b.WriteString("**Performance Metrics:**\n")
		fmt.Fprintf(&b, "- Total Return: %.2f%%\n", m.TotalReturnPct)
		fmt.Fprintf(&b, "- Annualized Return: %.2f%%\n", m.AnnualizedReturnPct)
		fmt.Fprintf(&b, "- Volatility: %.2f%%\n", m.VolatilityPct)
		fmt.Fprintf(&b, "- Sharpe Ratio: %.2f\n", m.SharpeRatio)
		fmt.Fprintf(&b, "- Maximum Drawdown: %.2f%%\n", m.MaxDrawdownPct)
		fmt.Fprintf(&b, "- Best Day: %.2f%%\n", m.BestDayPct)
		fmt.Fprintf(&b, "- Worst Day: %.2f%%\n", m.WorstDayPct)
		fmt.Fprintf(&b, "- Rebalances: %d\n", len(r.RebalanceDates))
		fmt.Fprintf(&b, "- Trading Days: %d\n\n", len(r.Snapshots))

		if target, ok := profiles[r.Profile]; ok {
			b.WriteString("**Target Allocation:**\n")
			symbols := make([]string, 0, len(target))
			for symbol := range target {
				symbols = append(symbols, symbol)
			}
			sort.Strings(symbols)
			for _, symbol := range symbols {
				fmt.Fprintf(&b, "- %s: %.0f%%\n", symbol, target[symbol]*100)
			}
			b.WriteString("\n")
		}
	}

	path := filepath.Join(dir, "BACKTEST_RESULTS.md")
	if err := writeFile(path, []byte(b.String())); err != nil {
		return "", err
	}
	log.Info().Str("path", path).Msg("markdown report written")
	return path, nil
}
