// Package broker defines the brokerage capability consumed by the
// rebalancer and backtester, plus its concrete adapters: a live Alpaca
// client and an offline CSV price source.
package broker

import (
	"context"
	"time"

	"etfbot/pkg/types"
)

// Gateway is the live brokerage capability: account state, quotes, and
// order submission. Calls may block on network I/O; cancellation and
// timeouts travel through the context.
type Gateway interface {
	// AccountValue returns total account equity in dollars.
	AccountValue(ctx context.Context) (float64, error)

	// PositionValues returns the current market value of every open
	// position, keyed by symbol.
	PositionValues(ctx context.Context) (types.Positions, error)

	// LatestPrice returns the most recent quote for a symbol. A zero price
	// with a nil error means no quote is available.
	LatestPrice(ctx context.Context, symbol string) (float64, error)

	// SubmitOrder places a market order for a whole number of shares.
	SubmitOrder(ctx context.Context, symbol string, quantity int, side types.OrderSide) error
}

// HistoricalSource provides daily closing prices for backtesting.
type HistoricalSource interface {
	// HistoricalPrices returns daily close bars per symbol, sorted by date
	// ascending, covering [start, end].
	HistoricalPrices(ctx context.Context, symbols []string, start, end time.Time) (map[string][]types.PriceBar, error)
}
