// Package allocation computes the dollar trades that move a portfolio
// toward a target percentage allocation. It is pure computation: no I/O,
// no state, deterministic output.
package allocation

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"etfbot/pkg/types"
)

// weightTolerance is the allowed deviation of the target weight sum from 1.0.
const weightTolerance = 0.001

// MinTradeValue is the dollar threshold below which a trade instruction is
// omitted. Applied to the dollar amount before any share rounding.
const MinTradeValue = 1.0

// ValidateTarget checks that a target allocation is usable: non-empty, no
// negative weights, and weights summing to 1.0 within tolerance.
func ValidateTarget(target types.AllocationTarget) error {
	if len(target) == 0 {
		return fmt.Errorf("%w: target is empty", types.ErrInvalidAllocation)
	}
	var sum float64
	for symbol, weight := range target {
		if weight < 0 {
			return fmt.Errorf("%w: negative weight %.4f for %s", types.ErrInvalidAllocation, weight, symbol)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, expected 1.0", types.ErrInvalidAllocation, sum)
	}
	return nil
}

// ComputeTrades returns the dollar adjustments that move currentPositions to
// the target allocation of totalValue. Symbols held but absent from the
// target receive an implicit weight of zero and are sold in full. Amounts
// are rounded to cents; adjustments under MinTradeValue are omitted. The
// result is sorted lexicographically by symbol.
func ComputeTrades(currentPositions types.Positions, totalValue float64, target types.AllocationTarget) ([]types.TradeInstruction, error) {
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}
	if totalValue < 0 {
		return nil, fmt.Errorf("%w: total value %.2f is negative", types.ErrInvalidAllocation, totalValue)
	}

	symbols := make([]string, 0, len(target)+len(currentPositions))
	seen := make(map[string]bool, len(target)+len(currentPositions))
	for symbol := range target {
		symbols = append(symbols, symbol)
		seen[symbol] = true
	}
	for symbol := range currentPositions {
		if !seen[symbol] {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)

	trades := make([]types.TradeInstruction, 0, len(symbols))
	for _, symbol := range symbols {
		desired := totalValue * target[symbol]
		diff := roundCents(desired - currentPositions[symbol])
		if math.Abs(diff) < MinTradeValue {
			continue
		}
		trades = append(trades, types.TradeInstruction{Symbol: symbol, Amount: diff})
	}
	return trades, nil
}

// Drift reports how far current positions have moved from the target, in
// percentage points: the sum of absolute per-symbol deviations and the
// largest single deviation. An empty portfolio has zero drift.
func Drift(positions types.Positions, target types.AllocationTarget) (total, max float64) {
	totalValue := positions.Total()
	if totalValue == 0 {
		return 0, 0
	}
	for symbol, targetWeight := range target {
		d := math.Abs(positions[symbol]/totalValue - targetWeight)
		total += d
		if d > max {
			max = d
		}
	}
	return total, max
}

// roundCents rounds a dollar amount to two decimal places.
func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
