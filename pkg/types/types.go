package types

import (
	"errors"
	"time"
)

// Validation and data errors shared across the engine packages. Callers
// match them with errors.Is; packages wrap them with context.
var (
	// ErrInvalidAllocation reports a target whose weights do not sum to 1,
	// contain a negative weight, or an otherwise unusable allocation input.
	ErrInvalidAllocation = errors.New("invalid allocation")

	// ErrInvalidDateRange reports a backtest range where start >= end.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidFrequency reports an unrecognized rebalance frequency.
	ErrInvalidFrequency = errors.New("invalid rebalance frequency")

	// ErrInsufficientHistory reports missing historical data: fewer than two
	// value points, zero elapsed days, or a symbol with no price on or
	// before the first simulated trading day.
	ErrInsufficientHistory = errors.New("insufficient history")
)

// AllocationTarget maps instrument symbols to target weights in [0,1].
// Weights must sum to 1.0 within ±0.001. Targets are defined once at
// configuration time and never mutated.
type AllocationTarget map[string]float64

// Positions maps instrument symbols to current market value in dollars.
type Positions map[string]float64

// Total returns the summed market value of all positions.
func (p Positions) Total() float64 {
	var total float64
	for _, v := range p {
		total += v
	}
	return total
}

// OrderSide is the direction of a market order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// TradeInstruction is a signed dollar adjustment for one symbol.
// Positive means buy, negative means sell.
type TradeInstruction struct {
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
}

// Side returns the order side implied by the instruction's sign.
func (t TradeInstruction) Side() OrderSide {
	if t.Amount > 0 {
		return SideBuy
	}
	return SideSell
}

// PriceBar is one daily closing price for a symbol.
type PriceBar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PortfolioSnapshot records the simulated portfolio on one trading day.
type PortfolioSnapshot struct {
	Date       time.Time          `json:"date"`
	TotalValue float64            `json:"total_value"`
	Values     map[string]float64 `json:"values"`
}

// PerformanceMetrics are the derived risk/return statistics of a value
// series. All percentage fields are expressed in percent, not ratios.
type PerformanceMetrics struct {
	TotalReturnPct      float64 `json:"total_return_pct"`
	AnnualizedReturnPct float64 `json:"annualized_return_pct"`
	VolatilityPct       float64 `json:"volatility_pct"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	BestDayPct          float64 `json:"best_day_pct"`
	WorstDayPct         float64 `json:"worst_day_pct"`
}

// BacktestResult is the outcome of one profile's simulation run.
type BacktestResult struct {
	Profile        string              `json:"risk_profile"`
	StartDate      time.Time           `json:"start_date"`
	EndDate        time.Time           `json:"end_date"`
	InitialCapital float64             `json:"initial_capital"`
	FinalValue     float64             `json:"final_value"`
	Metrics        PerformanceMetrics  `json:"metrics"`
	Snapshots      []PortfolioSnapshot `json:"snapshots,omitempty"`
	RebalanceDates []time.Time         `json:"rebalance_dates,omitempty"`
}

// OrderStatus classifies the outcome of one trade instruction during a
// live rebalancing pass.
type OrderStatus string

const (
	OrderSubmitted OrderStatus = "submitted"
	OrderSkipped   OrderStatus = "skipped"
	OrderFailed    OrderStatus = "failed"
)

// OrderResult is the per-instruction detail of a rebalancing pass.
type OrderResult struct {
	Symbol   string      `json:"symbol"`
	Side     OrderSide   `json:"side"`
	Amount   float64     `json:"amount"`
	Quantity int         `json:"quantity,omitempty"`
	Status   OrderStatus `json:"status"`
	Reason   string      `json:"reason,omitempty"`
}

// RebalanceReport summarizes a live rebalancing pass. A pass attempts every
// computed instruction regardless of earlier failures, so the report carries
// partial failure instead of an error.
type RebalanceReport struct {
	AccountValue float64       `json:"account_value"`
	Submitted    int           `json:"submitted"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	Orders       []OrderResult `json:"orders"`
}
