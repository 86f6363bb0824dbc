package calendar

import (
	"context"
	"time"

	"market-digest/internal/interfaces"
	"market-digest/internal/types"
)

// StaticSource serves a curated list of releases every day.
type StaticSource struct {
	events []types.CalendarEvent
}

var _ interfaces.CalendarSource = (*StaticSource)(nil)

// DefaultEvents is the curated list used when none is configured.
func DefaultEvents() []types.CalendarEvent {
	return []types.CalendarEvent{
		{TimeET: "08:30", Name: "Initial Jobless Claims", Consensus: types.NA, Source: "BLS"},
		{TimeET: "10:00", Name: "Existing Home Sales", Consensus: types.NA, Source: "NAR"},
	}
}

func NewStaticSource(events []types.CalendarEvent) *StaticSource {
	if len(events) == 0 {
		events = DefaultEvents()
	}
	out := make([]types.CalendarEvent, len(events))
	for i, ev := range events {
		if ev.Consensus == "" {
			ev.Consensus = types.NA
		}
		out[i] = ev
	}
	return &StaticSource{events: out}
}

func (s *StaticSource) Name() string { return "Static" }

// Today returns a copy so callers cannot alter the curated list.
func (s *StaticSource) Today(ctx context.Context, _ *time.Location) ([]types.CalendarEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]types.CalendarEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}
