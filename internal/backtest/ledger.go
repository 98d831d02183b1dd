package backtest

import (
	"fmt"
	"time"

	"etfbot/pkg/types"
)

// ledger is the simulated portfolio: uninvested cash plus fractional share
// quantities per symbol, revalued daily at forward-filled closes.
type ledger struct {
	cash       float64
	quantities map[string]float64
	lastPrice  map[string]float64
	values     map[string]float64
}

func newLedger(initialCash float64) *ledger {
	return &ledger{
		cash:       initialCash,
		quantities: make(map[string]float64),
		lastPrice:  make(map[string]float64),
		values:     make(map[string]float64),
	}
}

// markToMarket updates the forward-filled price of every symbol and
// revalues held positions at that day's close. A symbol with no close on
// this day and no prior close is a hard data error.
func (l *ledger) markToMarket(symbols []string, closes map[string]float64, day time.Time) error {
	for _, symbol := range symbols {
		if price, ok := closes[symbol]; ok && price > 0 {
			l.lastPrice[symbol] = price
		} else if _, known := l.lastPrice[symbol]; !known {
			return fmt.Errorf("%w: no price for %s on or before %s",
				types.ErrInsufficientHistory, symbol, day.Format("2006-01-02"))
		}
	}
	for symbol, quantity := range l.quantities {
		l.values[symbol] = quantity * l.lastPrice[symbol]
	}
	return nil
}

// snapshotValues returns the current position values and the total value
// available for allocation (positions plus cash).
func (l *ledger) snapshotValues() (types.Positions, float64) {
	positions := make(types.Positions, len(l.values))
	for symbol, value := range l.values {
		positions[symbol] = value
	}
	return positions, positions.Total() + l.cash
}

// apply executes trade instructions frictionlessly at the current
// forward-filled prices: dollar amounts convert straight into position
// value, fractional shares allowed.
func (l *ledger) apply(trades []types.TradeInstruction) {
	for _, trade := range trades {
		l.cash -= trade.Amount
		value := l.values[trade.Symbol] + trade.Amount
		if value < 1e-9 {
			delete(l.values, trade.Symbol)
			delete(l.quantities, trade.Symbol)
			continue
		}
		l.values[trade.Symbol] = value
		l.quantities[trade.Symbol] = value / l.lastPrice[trade.Symbol]
	}
}

// takeSnapshot copies the day's per-symbol values and total.
func (l *ledger) takeSnapshot(day time.Time) types.PortfolioSnapshot {
	values := make(map[string]float64, len(l.values))
	var total float64
	for symbol, value := range l.values {
		values[symbol] = value
		total += value
	}
	// Residual cash from sub-dollar omitted trades stays in the total.
	total += l.cash
	return types.PortfolioSnapshot{Date: day, TotalValue: total, Values: values}
}
