package report

import (
	"fmt"
	"path/filepath"

	charts "github.com/vicanso/go-charts/v2"

	"github.com/phuslu/log"

	"etfbot/pkg/types"
)

// WriteChart renders one profile's equity curve as a PNG line chart to
// <dir>/equity_<profile>.png, with the headline metrics in the subtitle.
func WriteChart(dir string, result types.BacktestResult) (string, error) {
	if len(result.Snapshots) == 0 {
		return "", fmt.Errorf("no snapshots to chart for profile %s", result.Profile)
	}

	values := make([]float64, 0, len(result.Snapshots))
	labels := make([]string, 0, len(result.Snapshots))
	minVal, maxVal := result.Snapshots[0].TotalValue, result.Snapshots[0].TotalValue
	for _, s := range result.Snapshots {
		values = append(values, s.TotalValue)
		labels = append(labels, s.Date.Format("Jan '06"))
		if s.TotalValue < minVal {
			minVal = s.TotalValue
		}
		if s.TotalValue > maxVal {
			maxVal = s.TotalValue
		}
	}

	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	yMin := minVal - padding
	yMax := maxVal + padding

	m := result.Metrics
	title := fmt.Sprintf("%s (%s to %s)\nReturn: %.2f%% | Sharpe: %.2f | Vol: %.2f%% | MaxDD: %.2f%%",
		result.Profile,
		result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02"),
		m.TotalReturnPct, m.SharpeRatio, m.VolatilityPct, m.MaxDrawdownPct)

	p, err := charts.LineRender(
		[][]float64{values},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: 6,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return "", fmt.Errorf("encode chart: %w", err)
	}

	path := filepath.Join(dir, "equity_"+result.Profile+".png")
	if err := writeFile(path, buf); err != nil {
		return "", err
	}
	log.Info().Str("path", path).Str("profile", result.Profile).Msg("equity chart written")
	return path, nil
}
