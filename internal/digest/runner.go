// Package digest drives one run: gate, collect, build, narrate, render,
// deliver and archive.
package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"market-digest/internal/audit"
	"market-digest/internal/bundle"
	"market-digest/internal/interfaces"
	"market-digest/internal/logger"
	"market-digest/internal/narrative"
	"market-digest/internal/news"
	"market-digest/internal/store"
	"market-digest/internal/types"
)

// ErrOutsideSlot stops a gated run whose local time is not the slot.
var ErrOutsideSlot = errors.New("outside scheduled slot")

type MarketCollector interface {
	Collect(ctx context.Context) types.MarketSnapshot
}

type HeadlineCollector interface {
	Collect(ctx context.Context) news.Batch
}

type CalendarCollector interface {
	Collect(ctx context.Context) []types.CalendarEvent
	SourceName() string
}

type Narrator interface {
	Narrate(ctx context.Context, bundle types.FactBundle) types.NarrativePair
}

// Deps are the collaborators of a run. All are required.
type Deps struct {
	Market   MarketCollector
	News     HeadlineCollector
	Calendar CalendarCollector
	Builder  *bundle.Builder
	Narrator Narrator
	Mailer   interfaces.Mailer
	Audit    interfaces.AuditSink
}

type Settings struct {
	Location    *time.Location
	EnforceSlot bool
	SlotHour    int
	SlotMinute  int
	From        string
	To          []string
	FeedKinds   []string
}

// SettingsFromConfig copies what a run needs out of the loaded config.
func SettingsFromConfig(cfg *store.Config) (Settings, error) {
	h, m, err := store.ParseSlot(cfg.Slot)
	if err != nil {
		return Settings{}, err
	}
	kinds := make([]string, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		kinds = append(kinds, f.Kind)
	}
	return Settings{
		Location:    cfg.Location,
		EnforceSlot: cfg.EnforceSlot,
		SlotHour:    h,
		SlotMinute:  m,
		From:        cfg.Secrets.SenderEmail,
		To:          append([]string{}, cfg.Secrets.Recipients...),
		FeedKinds:   kinds,
	}, nil
}

// Report describes a finished run.
type Report struct {
	Timestamp string
	Subject   string
	HTML      string
	Bundle    *types.FactBundle
	Narrative types.NarrativePair
	AuditPath string
}

type Runner struct {
	deps     Deps
	settings Settings
	now      func() time.Time
}

func NewRunner(settings Settings, deps Deps) *Runner {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &Runner{deps: deps, settings: settings, now: time.Now}
}

// InSlot reports whether t falls on hour:minute.
func InSlot(t time.Time, hour, minute int) bool {
	return t.Hour() == hour && t.Minute() == minute
}

// Run executes one digest. Only a gate miss and a delivery failure are
// returned as errors; data and generation problems degrade the content.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	now := r.now().In(r.settings.Location)
	if r.settings.EnforceSlot && !InSlot(now, r.settings.SlotHour, r.settings.SlotMinute) {
		return Report{}, fmt.Errorf("%w: local time %s, slot %02d:%02d",
			ErrOutsideSlot, now.Format("15:04"), r.settings.SlotHour, r.settings.SlotMinute)
	}

	timer := logger.StartOperation(ctx, "digest.Run")
	ctx = timer.Context()

	rep := Report{Timestamp: now.Format(TimestampLayout)}
	rep.Subject = Subject(rep.Timestamp)

	built := r.build(ctx)
	if built.IsOk() {
		rep.Bundle = &built.Value
		rep.Narrative = r.deps.Narrator.Narrate(ctx, built.Value)
	} else {
		logger.ErrorWithErr(ctx, "Fact bundle unavailable", built.Err)
		rep.Narrative = narrative.Fallback(built.Err)
	}

	html, err := Render(rep.Timestamp, rep.Narrative)
	if err != nil {
		timer.EndWithError(err)
		return rep, err
	}
	rep.HTML = html

	sendErr := r.deps.Mailer.Send(ctx, types.Email{
		From:    r.settings.From,
		To:      r.settings.To,
		Subject: rep.Subject,
		HTML:    rep.HTML,
	})

	rep.AuditPath = r.archive(ctx, rep)

	if sendErr != nil {
		err := fmt.Errorf("deliver digest: %w", sendErr)
		timer.EndWithError(err)
		return rep, err
	}
	timer.End("fallback", rep.Narrative.Fallback)
	return rep, nil
}

// Snapshot collects and builds without generating or sending.
func (r *Runner) Snapshot(ctx context.Context) (types.FactBundle, error) {
	built := r.build(ctx)
	return built.Value, built.Err
}

// build runs the collectors in order and composes the bundle. A panic in
// any of them becomes a failed result.
func (r *Runner) build(ctx context.Context) (res types.Result[types.FactBundle]) {
	defer func() {
		if p := recover(); p != nil {
			res = types.Fail[types.FactBundle](fmt.Errorf("building fact bundle: %v", p))
		}
	}()

	snap := r.deps.Market.Collect(ctx)
	batch := r.deps.News.Collect(ctx)
	events := r.deps.Calendar.Collect(ctx)

	return types.Ok(r.deps.Builder.Build(bundle.Inputs{
		Market:    snap,
		Headlines: batch.Headlines,
		Calendar:  events,
		Sources:   bundle.SourceClasses(r.settings.FeedKinds, snap.Provider, r.deps.Calendar.SourceName()),
	}))
}

// archive writes the audit snapshot. Failures are logged and dropped.
func (r *Runner) archive(ctx context.Context, rep Report) string {
	var payload any = audit.NoBundle(rep.Timestamp)
	if rep.Bundle != nil {
		payload = rep.Bundle
	}
	p, err := r.deps.Audit.Write(payload, r.now())
	if err != nil {
		logger.Warn(ctx, "Audit snapshot not written", "error", err)
		return ""
	}
	logger.Debug(ctx, "Audit snapshot written", "path", p)
	return p
}
