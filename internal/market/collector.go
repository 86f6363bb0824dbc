package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"market-digest/internal/interfaces"
	"market-digest/internal/logger"
	"market-digest/internal/store"
	"market-digest/internal/types"
)

var (
	ErrInsufficientData = errors.New("fewer than two closes available")
	ErrZeroPrevious     = errors.New("previous close is zero")
)

// sessions is how many closes a percentage change needs.
const sessions = 2

// Collector produces the market snapshot. A failing instrument degrades to
// the missing marker and never stops the others.
type Collector struct {
	provider    interfaces.MarketDataProvider
	instruments []store.Instrument
	now         func() time.Time
}

func NewCollector(provider interfaces.MarketDataProvider, instruments []store.Instrument) *Collector {
	return &Collector{
		provider:    provider,
		instruments: instruments,
		now:         time.Now,
	}
}

// Collect queries every instrument sequentially.
func (c *Collector) Collect(ctx context.Context) types.MarketSnapshot {
	snap := types.MarketSnapshot{
		Quotes:   make(map[string]types.Pct, len(c.instruments)),
		Provider: c.provider.Name(),
	}

	failures := 0
	for _, inst := range c.instruments {
		res := c.Quote(ctx, inst.Symbol)
		if !res.IsOk() {
			failures++
			logger.Warn(ctx, "Instrument degraded to n/a", "key", inst.Key, "symbol", inst.Symbol, "error", res.Err)
			snap.Quotes[inst.Key] = types.Missing
			continue
		}
		snap.Quotes[inst.Key] = res.Value
	}
	snap.CollectedAt = c.now().UTC()

	logger.Collected(ctx, "market", len(c.instruments)-failures, failures, "provider", snap.Provider)
	return snap
}

// Quote computes one instrument's change. Provider panics are reported as
// errors like any other fetch failure.
func (c *Collector) Quote(ctx context.Context, symbol string) (res types.Result[types.Pct]) {
	defer func() {
		if r := recover(); r != nil {
			res = types.Fail[types.Pct](fmt.Errorf("%s: provider panic: %v", symbol, r))
		}
	}()

	closes, err := c.provider.RecentCloses(ctx, symbol, sessions)
	if err != nil {
		return types.Fail[types.Pct](fmt.Errorf("%s: %w", symbol, err))
	}
	pct, err := ChangeFromCloses(closes)
	if err != nil {
		return types.Fail[types.Pct](fmt.Errorf("%s: %w", symbol, err))
	}
	return types.Ok(pct)
}

// ChangeFromCloses returns the change between the last two closes of an
// oldest-first series.
func ChangeFromCloses(closes []float64) (types.Pct, error) {
	if len(closes) < sessions {
		return types.Missing, ErrInsufficientData
	}
	prev, curr := closes[len(closes)-2], closes[len(closes)-1]
	if prev == 0 {
		return types.Missing, ErrZeroPrevious
	}
	return types.PctChange(prev, curr), nil
}
