package marketobs

import (
	"context"

	"market-digest/internal/interfaces"
	"market-digest/internal/logger"
	"market-digest/internal/trace"
)

// observableProvider wraps a MarketDataProvider with logging & tracing
type observableProvider struct {
	provider interfaces.MarketDataProvider
}

// Compile-time interface check
var _ interfaces.MarketDataProvider = (*observableProvider)(nil)

// Wrap wraps a market data provider with observability middleware
func Wrap(provider interfaces.MarketDataProvider) interfaces.MarketDataProvider {
	return &observableProvider{provider: provider}
}

func (op *observableProvider) Name() string {
	return op.provider.Name()
}

// RecentCloses fetches closes with observability
func (op *observableProvider) RecentCloses(ctx context.Context, symbol string, n int) ([]float64, error) {
	ctx, span := trace.StartSpan(ctx, "market.RecentCloses")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching recent closes", "provider", op.provider.Name(), "symbol", symbol, "count", n)

	closes, err := op.provider.RecentCloses(ctx, symbol, n)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch closes", err, "provider", op.provider.Name(), "symbol", symbol)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Closes fetched", "symbol", symbol, "points", len(closes))
	return closes, nil
}
