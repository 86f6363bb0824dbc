package calendar

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"

	"market-digest/internal/interfaces"
	"market-digest/internal/types"
)

// finnhubTimeLayout is how Finnhub reports release times, always UTC.
const finnhubTimeLayout = "2006-01-02 15:04:05"

type eventFetcher func(ctx context.Context, from, to string) ([]finnhub.EconomicEvent, error)

// FinnhubSource reads the Finnhub economic calendar.
type FinnhubSource struct {
	fetch     eventFetcher
	countries map[string]bool
	now       func() time.Time
}

var _ interfaces.CalendarSource = (*FinnhubSource)(nil)

func NewFinnhubSource(apiKey string, countries []string) *FinnhubSource {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	api := finnhub.NewAPIClient(cfg).DefaultApi

	return newFinnhubSource(func(ctx context.Context, from, to string) ([]finnhub.EconomicEvent, error) {
		res, _, err := api.EconomicCalendar(ctx).From(from).To(to).Execute()
		if err != nil {
			return nil, err
		}
		if res.EconomicCalendar == nil {
			return nil, nil
		}
		return *res.EconomicCalendar, nil
	}, countries)
}

func newFinnhubSource(fetch eventFetcher, countries []string) *FinnhubSource {
	set := make(map[string]bool, len(countries))
	for _, c := range countries {
		set[strings.ToUpper(strings.TrimSpace(c))] = true
	}
	return &FinnhubSource{fetch: fetch, countries: set, now: time.Now}
}

func (s *FinnhubSource) Name() string { return "Finnhub" }

// Today asks for a three day UTC window around today and keeps only
// releases that fall on today's date in loc.
func (s *FinnhubSource) Today(ctx context.Context, loc *time.Location) ([]types.CalendarEvent, error) {
	if loc == nil {
		loc = time.UTC
	}
	now := s.now().In(loc)
	from := now.AddDate(0, 0, -1).UTC().Format("2006-01-02")
	to := now.AddDate(0, 0, 1).UTC().Format("2006-01-02")

	raw, err := s.fetch(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("finnhub economic calendar: %w", err)
	}

	type dated struct {
		at time.Time
		ev types.CalendarEvent
	}
	var kept []dated
	y, m, d := now.Date()
	for _, e := range raw {
		if e.Event == nil || e.Time == nil {
			continue
		}
		if len(s.countries) > 0 && (e.Country == nil || !s.countries[strings.ToUpper(*e.Country)]) {
			continue
		}
		at, err := time.ParseInLocation(finnhubTimeLayout, *e.Time, time.UTC)
		if err != nil {
			continue
		}
		local := at.In(loc)
		if ly, lm, ld := local.Date(); ly != y || lm != m || ld != d {
			continue
		}
		kept = append(kept, dated{at: local, ev: types.CalendarEvent{
			TimeET:    local.Format("15:04"),
			Name:      strings.TrimSpace(*e.Event),
			Consensus: consensus(e.Estimate, e.Unit),
			Source:    "Finnhub",
		}})
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].at.Before(kept[j].at) })
	out := make([]types.CalendarEvent, len(kept))
	for i, k := range kept {
		out[i] = k.ev
	}
	return out, nil
}

func consensus(estimate *float32, unit *string) string {
	if estimate == nil {
		return types.NA
	}
	v := strconv.FormatFloat(float64(*estimate), 'f', -1, 32)
	if unit != nil && *unit != "" {
		return v + *unit
	}
	return v
}
