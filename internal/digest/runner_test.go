package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-digest/internal/audit"
	"market-digest/internal/bundle"
	"market-digest/internal/calendar"
	"market-digest/internal/interfaces"
	"market-digest/internal/market"
	"market-digest/internal/narrative"
	"market-digest/internal/news"
	"market-digest/internal/store"
	"market-digest/internal/types"
)

const (
	advisorReply = "Risk-on open. ES +0.50% [CME]"
	clientReply  = "Stocks look firmer.\nSources: public government & exchange data."
)

type fakeMarket struct {
	closes map[string][]float64
	fail   bool
	calls  int
}

func (f *fakeMarket) Name() string { return "YahooFinance" }

func (f *fakeMarket) RecentCloses(_ context.Context, symbol string, _ int) ([]float64, error) {
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("%s: connection reset", symbol)
	}
	return f.closes[symbol], nil
}

type fakeFeed struct {
	feed  types.Feed
	calls int
}

func (f *fakeFeed) Name() string { return "Reuters" }

func (f *fakeFeed) Fetch(context.Context) (types.Feed, error) {
	f.calls++
	return f.feed, nil
}

type fakeCompleter struct {
	replies []string
	err     error
	calls   []types.CompletionRequest
}

func (f *fakeCompleter) Model() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, req types.CompletionRequest) (string, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	return f.replies[len(f.calls)-1], nil
}

type fakeMailer struct {
	sent []types.Email
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg types.Email) error {
	f.sent = append(f.sent, msg)
	return f.err
}

type failingSink struct{}

func (failingSink) Write(any, time.Time) (string, error) { return "", errors.New("disk full") }

type harness struct {
	market    *fakeMarket
	feed      *fakeFeed
	completer *fakeCompleter
	mailer    *fakeMailer
	sink      interfaces.AuditSink
	auditDir  string
	runner    *Runner
}

var runTime = time.Date(2025, 3, 6, 13, 30, 0, 0, time.UTC) // 08:30 EST

func newHarness(t *testing.T, enforce bool) *harness {
	t.Helper()
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	h := &harness{
		market: &fakeMarket{closes: map[string][]float64{
			"ES=F":     {5000, 5025},
			"NQ=F":     {18000, 17910},
			"YM=F":     {39000, 39039},
			"^VIX":     {15, 14.4},
			"DX-Y.NYB": {104, 104.52},
			"CL=F":     {70, 71.4},
			"GC=F":     {2100, 2100},
			"^TNX":     {42.1, 42.52},
		}},
		feed: &fakeFeed{feed: types.Feed{Title: "Reuters Business", Entries: []types.FeedEntry{
			{Title: "Fed holds rates", Link: "https://example.com/1", Published: "Thu, 06 Mar 2025 11:00:00 GMT"},
			{Title: "Oil climbs", Link: "https://example.com/2"},
			{Title: "Fed holds rates", Link: "https://example.com/3"},
		}}},
		completer: &fakeCompleter{replies: []string{advisorReply, clientReply}},
		mailer:    &fakeMailer{},
		auditDir:  t.TempDir(),
	}
	h.sink = audit.NewFileSink(h.auditDir)

	builder := bundle.NewBuilder(ny)
	h.runner = NewRunner(Settings{
		Location:    ny,
		EnforceSlot: enforce,
		SlotHour:    8,
		SlotMinute:  30,
		From:        "desk@example.com",
		To:          []string{"a@example.com"},
		FeedKinds:   []string{"RSS"},
	}, Deps{
		Market:   market.NewCollector(h.market, store.DefaultInstruments()),
		News:     news.NewCollector([]interfaces.FeedSource{h.feed}, 6),
		Calendar: calendar.NewCollector(calendar.NewStaticSource(nil), ny),
		Builder:  builder,
		Narrator: narrative.NewGenerator(h.completer, 0.2, 300),
		Mailer:   h.mailer,
		Audit:    h.sink,
	})
	h.runner.now = func() time.Time { return runTime }
	return h
}

func (h *harness) useSink(s interfaces.AuditSink) { h.runner.deps.Audit = s }

func auditFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "bundle_*.json"))
	require.NoError(t, err)
	return matches
}

func TestRunHappyPath(t *testing.T) {
	h := newHarness(t, false)

	rep, err := h.runner.Run(context.Background())

	require.NoError(t, err)
	assert.False(t, rep.Narrative.Fallback)
	assert.Equal(t, advisorReply, rep.Narrative.AdvisorText)
	assert.Equal(t, clientReply, rep.Narrative.ClientText)
	assert.Contains(t, rep.HTML, escapedText(t, advisorReply))
	assert.Contains(t, rep.HTML, escapedText(t, clientReply))
	assert.NotContains(t, rep.HTML, advisorReply, "narrative text is escaped")
	assert.Contains(t, rep.HTML, "Thu Mar 06, 2025 — 08:30 AM EST")

	require.Len(t, h.mailer.sent, 1)
	sent := h.mailer.sent[0]
	assert.Equal(t, "Daily Macro — Thu Mar 06, 2025 — 08:30 AM EST", sent.Subject)
	assert.Equal(t, []string{"a@example.com"}, sent.To)
	assert.Equal(t, "desk@example.com", sent.From)

	files := auditFiles(t, h.auditDir)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(h.auditDir, "bundle_20250306_133000.json"), files[0])
	assert.Equal(t, files[0], rep.AuditPath)

	require.NotNil(t, rep.Bundle)
	assert.Equal(t, "+0.50%", rep.Bundle.Indices.ES.Pct.String())
	assert.Equal(t, "+0.00%", rep.Bundle.Commodities.GoldPct.String())
	assert.Len(t, rep.Bundle.Headlines, 2, "duplicate title dropped")
	assert.Len(t, rep.Bundle.CalendarToday, 2)
	assert.Equal(t, []string{"RSS", "YahooFinance", "Static"}, rep.Bundle.Audit.Sources)
}

func TestRunAllInstrumentsFail(t *testing.T) {
	h := newHarness(t, false)
	h.market.fail = true

	rep, err := h.runner.Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, rep.Bundle)
	for key, pct := range rep.Bundle.Metrics() {
		assert.True(t, pct.IsMissing(), key)
	}

	require.Len(t, h.completer.calls, 2, "generation still attempted")
	payload := h.completer.calls[0].Messages[1].Content
	assert.Contains(t, payload, `"ES":{"pct":null}`)
	assert.Contains(t, payload, `"VIX_lvl_pct":null`)
	assert.Len(t, h.mailer.sent, 1)
}

func TestRunGenerationFailureSendsFallback(t *testing.T) {
	h := newHarness(t, false)
	h.completer.err = errors.New("rate limit exceeded")

	rep, err := h.runner.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, rep.Narrative.Fallback)
	assert.Len(t, h.completer.calls, 1)

	fallback := narrative.Fallback(errors.New("advisor stage: rate limit exceeded"))
	assert.Equal(t, fallback.AdvisorText, rep.Narrative.AdvisorText)
	assert.Equal(t, fallback.ClientText, rep.Narrative.ClientText)

	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "Daily Macro — Thu Mar 06, 2025 — 08:30 AM EST", h.mailer.sent[0].Subject)
	assert.Contains(t, h.mailer.sent[0].HTML, "Data unavailable from public sources at this time.")
	assert.Len(t, auditFiles(t, h.auditDir), 1)
}

func TestRunGateBlocksEverything(t *testing.T) {
	h := newHarness(t, true)
	h.runner.now = func() time.Time { return runTime.Add(time.Minute) }

	_, err := h.runner.Run(context.Background())

	require.ErrorIs(t, err, ErrOutsideSlot)
	assert.Zero(t, h.market.calls)
	assert.Zero(t, h.feed.calls)
	assert.Empty(t, h.completer.calls)
	assert.Empty(t, h.mailer.sent)
	assert.Empty(t, auditFiles(t, h.auditDir))
}

func TestRunGateAllowsSlot(t *testing.T) {
	h := newHarness(t, true)

	_, err := h.runner.Run(context.Background())

	require.NoError(t, err)
	assert.Len(t, h.mailer.sent, 1)
}

func TestRunDeliveryFailureIsFatal(t *testing.T) {
	h := newHarness(t, false)
	h.mailer.err = errors.New("535 authentication failed")

	rep, err := h.runner.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "535")
	assert.NotEmpty(t, rep.AuditPath, "audit is written regardless of delivery")
}

func TestRunAuditFailureIsSwallowed(t *testing.T) {
	h := newHarness(t, false)
	h.useSink(failingSink{})

	rep, err := h.runner.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, rep.AuditPath)
	assert.Len(t, h.mailer.sent, 1)
}

type panickyMarket struct{}

func (panickyMarket) Collect(context.Context) types.MarketSnapshot { panic("nil snapshot") }

func TestRunBundleFailureWritesPlaceholder(t *testing.T) {
	h := newHarness(t, false)
	h.runner.deps.Market = panickyMarket{}

	rep, err := h.runner.Run(context.Background())

	require.NoError(t, err)
	assert.Nil(t, rep.Bundle)
	assert.True(t, rep.Narrative.Fallback)
	assert.Empty(t, h.completer.calls)

	raw, err := os.ReadFile(rep.AuditPath)
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "no bundle", got["error"])
	assert.Equal(t, rep.Timestamp, got["ts"])
}

func TestAuditRoundTrip(t *testing.T) {
	h := newHarness(t, false)

	rep, err := h.runner.Run(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(rep.AuditPath)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for category, keys := range types.CategoryKeys {
		group := decoded[category].(map[string]any)
		for _, key := range keys {
			assert.Contains(t, group, key, "%s.%s", category, key)
		}
	}
	assert.Len(t, decoded["headlines"], len(rep.Bundle.Headlines))

	var back types.FactBundle
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, rep.Bundle.Metrics(), back.Metrics())
	assert.Equal(t, rep.Bundle.RunID, back.RunID)
}

func TestSnapshotSkipsGenerationAndDelivery(t *testing.T) {
	h := newHarness(t, true)
	h.runner.now = func() time.Time { return runTime.Add(time.Hour) }

	b, err := h.runner.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Len(t, b.Headlines, 2)
	assert.Empty(t, h.completer.calls)
	assert.Empty(t, h.mailer.sent)
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := &store.Config{Slot: "09:45", EnforceSlot: true, Location: time.UTC}
	cfg.Feeds = []store.Feed{{Kind: "RSS"}, {Kind: "HTML"}}
	cfg.Secrets.SenderEmail = "desk@example.com"
	cfg.Secrets.Recipients = []string{"a@example.com"}

	s, err := SettingsFromConfig(cfg)

	require.NoError(t, err)
	assert.Equal(t, 9, s.SlotHour)
	assert.Equal(t, 45, s.SlotMinute)
	assert.True(t, s.EnforceSlot)
	assert.Equal(t, []string{"RSS", "HTML"}, s.FeedKinds)

	cfg.Slot = "9.45"
	_, err = SettingsFromConfig(cfg)
	assert.Error(t, err)
}
