package interfaces

import (
	"context"
	"time"

	"market-digest/internal/types"
)

// FeedSource is one news feed endpoint.
type FeedSource interface {
	Name() string
	Fetch(ctx context.Context) (types.Feed, error)
}

// CalendarSource supplies today's scheduled economic releases.
type CalendarSource interface {
	Name() string
	Today(ctx context.Context, loc *time.Location) ([]types.CalendarEvent, error)
}
