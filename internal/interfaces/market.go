package interfaces

import "context"

// MarketDataProvider returns recent daily closes for a provider symbol.
type MarketDataProvider interface {
	Name() string
	// RecentCloses returns at most n of the latest closes, oldest first.
	RecentCloses(ctx context.Context, symbol string, n int) ([]float64, error)
}
