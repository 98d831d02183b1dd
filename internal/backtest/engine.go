// Package backtest simulates a fixed-target rebalancing policy over a
// historical daily price series and reports performance metrics per run.
package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/phuslu/log"

	"etfbot/internal/allocation"
	"etfbot/internal/broker"
	"etfbot/internal/metrics"
	"etfbot/pkg/types"
)

// Frequency is how often the simulated portfolio is rebalanced.
type Frequency string

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// ParseFrequency validates a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case Monthly, Quarterly, Yearly:
		return Frequency(s), nil
	}
	return "", fmt.Errorf("%w: %q (valid: monthly, quarterly, yearly)", types.ErrInvalidFrequency, s)
}

func (f Frequency) months() int {
	switch f {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	default:
		return 12
	}
}

// Params describe one backtest run.
type Params struct {
	Profile        string
	Target         types.AllocationTarget
	Start          time.Time
	End            time.Time
	InitialCapital float64
	Frequency      Frequency
}

// Engine runs backtests against a historical price source.
type Engine struct {
	source broker.HistoricalSource
}

// New creates an engine over the given price source.
func New(source broker.HistoricalSource) *Engine {
	return &Engine{source: source}
}

// Run simulates the target allocation from Params.Start to Params.End.
// The portfolio starts fully in cash and is rebalanced into the target on
// the first trading day, then on the first trading day on/after each
// calendar boundary of the frequency. Trades apply instantly at that day's
// close with fractional shares and no costs. Missing prices are carried
// forward from the last known close; a symbol with no price on or before a
// simulated day fails the run with ErrInsufficientHistory.
func (e *Engine) Run(ctx context.Context, p Params) (types.BacktestResult, error) {
	if err := e.validate(p); err != nil {
		return types.BacktestResult{}, err
	}

	symbols := make([]string, 0, len(p.Target))
	for symbol := range p.Target {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	history, err := e.source.HistoricalPrices(ctx, symbols, p.Start, p.End)
	if err != nil {
		return types.BacktestResult{}, fmt.Errorf("load historical prices: %w", err)
	}
	days, pricesByDay := indexByDay(history)
	if len(days) == 0 {
		return types.BacktestResult{}, fmt.Errorf("%w: no trading days between %s and %s",
			types.ErrInsufficientHistory, p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
	}

	rebalanceDays := scheduleRebalances(days, p.Start, p.End, p.Frequency)

	log.Info().Str("profile", p.Profile).Str("frequency", string(p.Frequency)).
		Str("from", days[0].Format("2006-01-02")).Str("to", days[len(days)-1].Format("2006-01-02")).
		Int("trading_days", len(days)).Int("rebalances", len(rebalanceDays)).
		Msg("running backtest")

	sim := newLedger(p.InitialCapital)
	snapshots := make([]types.PortfolioSnapshot, 0, len(days))
	series := make([]metrics.ValuePoint, 0, len(days))
	var applied []time.Time

	for i, day := range days {
		if err := sim.markToMarket(symbols, pricesByDay[day], day); err != nil {
			return types.BacktestResult{}, err
		}

		if rebalanceDays[day] {
			positions, totalValue := sim.snapshotValues()
			trades, err := allocation.ComputeTrades(positions, totalValue, p.Target)
			if err != nil {
				return types.BacktestResult{}, err
			}
			sim.apply(trades)
			applied = append(applied, day)
		}

		snapshot := sim.takeSnapshot(day)
		snapshots = append(snapshots, snapshot)
		series = append(series, metrics.ValuePoint{Date: day, Value: snapshot.TotalValue})

		if (i+1)%100 == 0 || i == len(days)-1 {
			log.Debug().Str("profile", p.Profile).Int("day", i+1).Int("days", len(days)).
				Float64("value", snapshot.TotalValue).Msg("backtest progress")
		}
	}

	perf, err := metrics.Compute(series)
	if err != nil {
		return types.BacktestResult{}, err
	}

	return types.BacktestResult{
		Profile:        p.Profile,
		StartDate:      days[0],
		EndDate:        days[len(days)-1],
		InitialCapital: p.InitialCapital,
		FinalValue:     snapshots[len(snapshots)-1].TotalValue,
		Metrics:        perf,
		Snapshots:      snapshots,
		RebalanceDates: applied,
	}, nil
}

func (e *Engine) validate(p Params) error {
	if !p.Start.Before(p.End) {
		return fmt.Errorf("%w: start %s is not before end %s", types.ErrInvalidDateRange,
			p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
	}
	if _, err := ParseFrequency(string(p.Frequency)); err != nil {
		return err
	}
	if err := allocation.ValidateTarget(p.Target); err != nil {
		return err
	}
	if p.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive", types.ErrInvalidAllocation)
	}
	return nil
}

// RunAll backtests every registered profile with the same parameters. A
// failing profile does not abort the others; its error lands in the
// returned map keyed by profile name.
func (e *Engine) RunAll(ctx context.Context, profiles allocation.Profiles, start, end time.Time, initialCapital float64, frequency Frequency) ([]types.BacktestResult, map[string]error) {
	results := make([]types.BacktestResult, 0, len(profiles))
	failures := make(map[string]error)
	for _, name := range profiles.Names() {
		result, err := e.Run(ctx, Params{
			Profile:        name,
			Target:         profiles[name],
			Start:          start,
			End:            end,
			InitialCapital: initialCapital,
			Frequency:      frequency,
		})
		if err != nil {
			log.Warn().Str("profile", name).Err(err).Msg("backtest failed")
			failures[name] = err
			continue
		}
		results = append(results, result)
	}
	return results, failures
}

// indexByDay flattens per-symbol bars into a sorted list of trading days
// and a close-price lookup per day. Bar timestamps are normalized to
// midnight UTC so intraday offsets from different sources line up.
func indexByDay(history map[string][]types.PriceBar) ([]time.Time, map[time.Time]map[string]float64) {
	byDay := make(map[time.Time]map[string]float64)
	for symbol, bars := range history {
		for _, bar := range bars {
			day := normalize(bar.Date)
			if byDay[day] == nil {
				byDay[day] = make(map[string]float64)
			}
			byDay[day][symbol] = bar.Close
		}
	}
	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, byDay
}

// scheduleRebalances marks the first trading day on/after each calendar
// boundary of the frequency, starting at the range start. The first trading
// day is always a rebalance day: the simulation opens all-cash and must buy
// into the target.
func scheduleRebalances(days []time.Time, start, end time.Time, frequency Frequency) map[time.Time]bool {
	marked := make(map[time.Time]bool)
	for boundary := normalize(start); !boundary.After(normalize(end)); boundary = boundary.AddDate(0, frequency.months(), 0) {
		i := sort.Search(len(days), func(i int) bool { return !days[i].Before(boundary) })
		if i < len(days) {
			marked[days[i]] = true
		}
	}
	return marked
}

func normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
