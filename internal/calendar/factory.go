package calendar

import (
	"market-digest/internal/interfaces"
	"market-digest/internal/store"
	"market-digest/internal/types"
)

// NewSource selects the calendar source named in the config.
func NewSource(cfg *store.Config) interfaces.CalendarSource {
	if cfg.Calendar.Provider == "FINNHUB" {
		return NewFinnhubSource(cfg.Secrets.FinnhubKey, cfg.Calendar.Countries)
	}

	events := make([]types.CalendarEvent, 0, len(cfg.Calendar.Events))
	for _, e := range cfg.Calendar.Events {
		events = append(events, types.CalendarEvent{
			TimeET:    e.TimeET,
			Name:      e.Name,
			Consensus: e.Consensus,
			Source:    e.Source,
		})
	}
	return NewStaticSource(events)
}
