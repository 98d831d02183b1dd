// Package rebalance executes one live rebalancing pass against a brokerage
// gateway: read state, compute trades, submit whole-share market orders.
package rebalance

import (
	"context"
	"fmt"
	"math"

	"github.com/phuslu/log"

	"etfbot/internal/allocation"
	"etfbot/internal/broker"
	"etfbot/pkg/types"
)

// Rebalancer drives a single pass. It holds no state between passes and
// never retries a failed order; retrying is the caller's concern across
// runs.
type Rebalancer struct {
	gateway broker.Gateway
}

// New creates a Rebalancer over the given gateway.
func New(gateway broker.Gateway) *Rebalancer {
	return &Rebalancer{gateway: gateway}
}

// Rebalance moves the account toward the target allocation. Reading account
// state and validating the target are hard failures; after that, every
// computed instruction is attempted regardless of earlier per-order
// failures, and the outcome lands in the report instead of an error.
func (r *Rebalancer) Rebalance(ctx context.Context, target types.AllocationTarget) (types.RebalanceReport, error) {
	accountValue, err := r.gateway.AccountValue(ctx)
	if err != nil {
		return types.RebalanceReport{}, fmt.Errorf("get account value: %w", err)
	}
	positions, err := r.gateway.PositionValues(ctx)
	if err != nil {
		return types.RebalanceReport{}, fmt.Errorf("get positions: %w", err)
	}

	trades, err := allocation.ComputeTrades(positions, accountValue, target)
	if err != nil {
		return types.RebalanceReport{}, err
	}

	totalDrift, maxDrift := allocation.Drift(positions, target)
	log.Info().Float64("account_value", accountValue).Int("trades", len(trades)).
		Float64("drift_pct", totalDrift*100).Float64("max_drift_pct", maxDrift*100).
		Msg("starting rebalancing pass")

	report := types.RebalanceReport{
		AccountValue: accountValue,
		Orders:       make([]types.OrderResult, 0, len(trades)),
	}
	for _, trade := range trades {
		result := r.execute(ctx, trade)
		report.Orders = append(report.Orders, result)
		switch result.Status {
		case types.OrderSubmitted:
			report.Submitted++
		case types.OrderSkipped:
			report.Skipped++
		case types.OrderFailed:
			report.Failed++
		}
	}

	log.Info().Int("submitted", report.Submitted).Int("skipped", report.Skipped).
		Int("failed", report.Failed).Msg("rebalancing pass complete")
	return report, nil
}

// execute turns one dollar instruction into a market order. Share quantity
// uses math.Round: half away from zero.
func (r *Rebalancer) execute(ctx context.Context, trade types.TradeInstruction) types.OrderResult {
	result := types.OrderResult{
		Symbol: trade.Symbol,
		Side:   trade.Side(),
		Amount: trade.Amount,
	}

	price, err := r.gateway.LatestPrice(ctx, trade.Symbol)
	if err != nil || price <= 0 {
		result.Status = types.OrderFailed
		if err != nil {
			result.Reason = fmt.Sprintf("invalid price: %v", err)
		} else {
			result.Reason = "invalid price"
		}
		log.Warn().Str("symbol", trade.Symbol).Err(err).Msg("skipping order: no usable price")
		return result
	}

	quantity := int(math.Round(math.Abs(trade.Amount) / price))
	if quantity == 0 {
		result.Status = types.OrderSkipped
		result.Reason = "rounds to zero shares"
		log.Info().Str("symbol", trade.Symbol).Float64("amount", trade.Amount).
			Float64("price", price).Msg("skipping order: rounds to zero shares")
		return result
	}
	result.Quantity = quantity

	if err := r.gateway.SubmitOrder(ctx, trade.Symbol, quantity, result.Side); err != nil {
		result.Status = types.OrderFailed
		result.Reason = fmt.Sprintf("gateway error: %v", err)
		log.Error().Str("symbol", trade.Symbol).Err(err).Msg("order submission failed")
		return result
	}
	result.Status = types.OrderSubmitted
	return result
}
