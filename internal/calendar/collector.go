package calendar

import (
	"context"
	"fmt"
	"time"

	"market-digest/internal/interfaces"
	"market-digest/internal/logger"
	"market-digest/internal/types"
)

// Collector wraps a CalendarSource so callers always get a list back.
type Collector struct {
	source interfaces.CalendarSource
	loc    *time.Location
}

func NewCollector(source interfaces.CalendarSource, loc *time.Location) *Collector {
	if loc == nil {
		loc = time.UTC
	}
	return &Collector{source: source, loc: loc}
}

func (c *Collector) SourceName() string {
	if c.source == nil {
		return ""
	}
	return c.source.Name()
}

// Collect returns today's releases in source order. Any failure, including
// a panicking source, yields an empty list.
func (c *Collector) Collect(ctx context.Context) []types.CalendarEvent {
	if c.source == nil {
		return []types.CalendarEvent{}
	}

	res := c.today(ctx)
	if !res.IsOk() {
		logger.Warn(ctx, "Calendar unavailable", "source", c.source.Name(), "error", res.Err)
		logger.Collected(ctx, "calendar", 0, 1)
		return []types.CalendarEvent{}
	}
	logger.Collected(ctx, "calendar", len(res.Value), 0, "source", c.source.Name())
	return res.Value
}

func (c *Collector) today(ctx context.Context) (res types.Result[[]types.CalendarEvent]) {
	defer func() {
		if r := recover(); r != nil {
			res = types.Fail[[]types.CalendarEvent](fmt.Errorf("calendar panic: %v", r))
		}
	}()

	events, err := c.source.Today(ctx, c.loc)
	if err != nil {
		return types.Fail[[]types.CalendarEvent](err)
	}
	if events == nil {
		events = []types.CalendarEvent{}
	}
	return types.Ok(events)
}
