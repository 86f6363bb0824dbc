package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"market-digest/internal/interfaces"
	"market-digest/internal/logger"
	"market-digest/internal/types"
)

// FeedFailure records a feed skipped during collection.
type FeedFailure struct {
	Source string
	Err    error
}

// Batch is the collector output.
type Batch struct {
	Headlines []types.Headline
	Failures  []FeedFailure
}

// Collector polls feeds in order, merges, dedupes by title and truncates.
type Collector struct {
	sources []interfaces.FeedSource
	max     int
	now     func() time.Time
}

func NewCollector(sources []interfaces.FeedSource, maxItems int) *Collector {
	return &Collector{sources: sources, max: maxItems, now: time.Now}
}

// PerFeedSlice is how many entries are taken from each feed before dedup:
// the cap spread evenly plus one. Final truncation enforces the real cap.
func PerFeedSlice(maxItems, feeds int) int {
	if feeds <= 0 {
		return 0
	}
	return maxItems/feeds + 1
}

func (c *Collector) Collect(ctx context.Context) Batch {
	var batch Batch
	if c.max <= 0 || len(c.sources) == 0 {
		return batch
	}

	perFeed := PerFeedSlice(c.max, len(c.sources))
	var items []types.Headline
	for _, src := range c.sources {
		got, err := c.fetch(ctx, src, perFeed)
		if err != nil {
			logger.Warn(ctx, "Skipping feed", "source", src.Name(), "error", err)
			batch.Failures = append(batch.Failures, FeedFailure{Source: src.Name(), Err: err})
			continue
		}
		items = append(items, got...)
	}

	batch.Headlines = Truncate(Dedupe(items), c.max)
	logger.Collected(ctx, "headlines", len(batch.Headlines), len(batch.Failures), "fetched", len(items))
	return batch
}

// fetch converts one feed into headlines. Nothing from a failed feed is
// kept, so a failure never leaves partial items behind.
func (c *Collector) fetch(ctx context.Context, src interfaces.FeedSource, limit int) (out []types.Headline, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("feed panic: %v", r)
		}
	}()

	feed, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	source := feed.Title
	if source == "" {
		source = src.Name()
	}
	if source == "" {
		source = "RSS"
	}

	entries := feed.Entries
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out = make([]types.Headline, 0, len(entries))
	for _, e := range entries {
		title := e.Title
		if strings.TrimSpace(title) == "" {
			title = types.NA
		}
		published := e.Published
		if published == "" {
			published = c.now().UTC().Format(time.RFC3339)
		}
		out = append(out, types.Headline{
			Title:     title,
			Source:    source,
			URL:       e.Link,
			Published: published,
		})
	}
	return out, nil
}

// Dedupe drops headlines whose exact title was already seen, keeping order.
// Titles are compared as the feed reported them.
func Dedupe(items []types.Headline) []types.Headline {
	seen := make(map[string]struct{}, len(items))
	out := make([]types.Headline, 0, len(items))
	for _, it := range items {
		if _, dup := seen[it.Title]; dup {
			continue
		}
		seen[it.Title] = struct{}{}
		out = append(out, it)
	}
	return out
}

func Truncate(items []types.Headline, n int) []types.Headline {
	if len(items) > n {
		return items[:n]
	}
	return items
}
