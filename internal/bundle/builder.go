// Package bundle composes collector outputs into the fact bundle. It does
// no I/O of its own.
package bundle

import (
	"time"

	"github.com/google/uuid"

	"market-digest/internal/types"
)

// Inputs are the already-fetched collector outputs for one run.
type Inputs struct {
	Market    types.MarketSnapshot
	Headlines []types.Headline
	Calendar  []types.CalendarEvent
	Sources   []string
}

type Builder struct {
	loc   *time.Location
	now   func() time.Time
	newID func() string
}

func NewBuilder(loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{
		loc:   loc,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Build never fails: an instrument absent from the snapshot lands in the
// bundle as the missing marker.
func (b *Builder) Build(in Inputs) types.FactBundle {
	stamp := b.now().In(b.loc).Format(time.RFC3339)
	m := in.Market

	return types.FactBundle{
		RunID: stamp,
		Indices: types.Indices{
			ES: types.Metric{Pct: m.Get("ES")},
			NQ: types.Metric{Pct: m.Get("NQ")},
			DJ: types.Metric{Pct: m.Get("DJ")},
		},
		RatesFX: types.RatesFX{
			UST10yPctChg: m.Get("UST10Y"),
			DXYPct:       m.Get("DXY"),
		},
		Commodities: types.Commodities{
			WTIPct:  m.Get("WTI"),
			GoldPct: m.Get("GOLD"),
		},
		VolCredit: types.VolCredit{
			VIXLvlPct: m.Get("VIX"),
		},
		Overnight:     map[string]string{},
		CalendarToday: append([]types.CalendarEvent{}, in.Calendar...),
		Headlines:     append([]types.Headline{}, in.Headlines...),
		Audit: types.Audit{
			Sources:       append([]string{}, in.Sources...),
			GeneratedAt:   stamp,
			CorrelationID: b.newID(),
		},
	}
}

// SourceClasses lists the source classes a run drew from: the headline feed
// kinds in first-seen order, then the market provider, then the calendar.
func SourceClasses(feedKinds []string, marketProvider, calendarSource string) []string {
	out := make([]string, 0, len(feedKinds)+2)
	seen := map[string]bool{}
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, k := range feedKinds {
		add(k)
	}
	add(marketProvider)
	add(calendarSource)
	return out
}
