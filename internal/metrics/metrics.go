// Package metrics derives risk/return statistics from a portfolio value
// time series. All functions are pure and deterministic.
package metrics

import (
	"fmt"
	"math"
	"time"

	"etfbot/pkg/types"
)

// tradingDays is the annualization factor for daily returns.
const tradingDays = 252

// ValuePoint is one observation of total portfolio value.
type ValuePoint struct {
	Date  time.Time
	Value float64
}

// Compute derives performance metrics from a chronologically ordered value
// series. The series needs at least two points spanning at least one day,
// otherwise ErrInsufficientHistory is returned.
//
// Volatility and Sharpe use the sample standard deviation (n-1) of daily
// returns, annualized over 252 trading days. Sharpe assumes a zero
// risk-free rate and is 0 (not NaN) when the return series has no variance.
func Compute(series []ValuePoint) (types.PerformanceMetrics, error) {
	if len(series) < 2 {
		return types.PerformanceMetrics{}, fmt.Errorf("%w: need at least 2 value points, got %d", types.ErrInsufficientHistory, len(series))
	}
	first, last := series[0], series[len(series)-1]
	daysElapsed := last.Date.Sub(first.Date).Hours() / 24
	if daysElapsed == 0 {
		return types.PerformanceMetrics{}, fmt.Errorf("%w: zero days elapsed between %s and %s",
			types.ErrInsufficientHistory, first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"))
	}

	returns := dailyReturns(series)

	growth := last.Value / first.Value
	m := types.PerformanceMetrics{
		TotalReturnPct:      (growth - 1) * 100,
		AnnualizedReturnPct: (math.Pow(growth, 365.25/daysElapsed) - 1) * 100,
		MaxDrawdownPct:      maxDrawdown(series),
		BestDayPct:          maxOf(returns) * 100,
		WorstDayPct:         minOf(returns) * 100,
	}

	sd := stdev(returns)
	m.VolatilityPct = sd * math.Sqrt(tradingDays) * 100
	if sd > 0 {
		m.SharpeRatio = (mean(returns) * tradingDays) / (sd * math.Sqrt(tradingDays))
	}
	return m, nil
}

// dailyReturns computes simple day-over-day returns.
func dailyReturns(series []ValuePoint) []float64 {
	returns := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		returns = append(returns, series[i].Value/series[i-1].Value-1)
	}
	return returns
}

// maxDrawdown returns the largest percentage decline from a running peak to
// any subsequent value, in percent. Always in [0, 100] for non-negative
// value series.
func maxDrawdown(series []ValuePoint) float64 {
	peak := series[0].Value
	var worst float64
	for _, p := range series {
		if p.Value > peak {
			peak = p.Value
		}
		if dd := (peak - p.Value) / peak * 100; dd > worst {
			worst = dd
		}
	}
	return worst
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev is the sample standard deviation (n-1 denominator), matching the
// convention used for the volatility and Sharpe figures. Returns 0 for
// fewer than two observations.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func maxOf(xs []float64) float64 {
	max := xs[0]
	for _, x := range xs[1:] {
		if x > max {
			max = x
		}
	}
	return max
}

func minOf(xs []float64) float64 {
	min := xs[0]
	for _, x := range xs[1:] {
		if x < min {
			min = x
		}
	}
	return min
}
