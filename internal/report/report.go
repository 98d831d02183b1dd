// Package report exports backtest results: a JSON record set, a markdown
// comparison report, and equity-curve charts.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phuslu/log"

	"etfbot/pkg/types"
)

// jsonRecord is the serialized form of one profile's run. Snapshots are
// optional: multi-year daily series dominate the file size.
type jsonRecord struct {
	Profile        string                    `json:"risk_profile"`
	StartDate      string                    `json:"start_date"`
	EndDate        string                    `json:"end_date"`
	InitialCapital float64                   `json:"initial_capital"`
	FinalValue     float64                   `json:"final_value"`
	Metrics        types.PerformanceMetrics  `json:"metrics"`
	RebalanceCount int                       `json:"rebalance_count"`
	Snapshots      []types.PortfolioSnapshot `json:"snapshots,omitempty"`
}

// WriteJSON writes the results to <dir>/backtest_results.json.
func WriteJSON(dir string, results []types.BacktestResult, includeSnapshots bool) (string, error) {
	records := make(map[string]jsonRecord, len(results))
	for _, r := range results {
		rec := jsonRecord{
			Profile:        r.Profile,
			StartDate:      r.StartDate.Format("2006-01-02"),
			EndDate:        r.EndDate.Format("2006-01-02"),
			InitialCapital: r.InitialCapital,
			FinalValue:     r.FinalValue,
			Metrics:        r.Metrics,
			RebalanceCount: len(r.RebalanceDates),
		}
		if includeSnapshots {
			rec.Snapshots = r.Snapshots
		}
		records[r.Profile] = rec
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	path := filepath.Join(dir, "backtest_results.json")
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	log.Info().Str("path", path).Int("profiles", len(results)).Msg("results exported")
	return path, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
