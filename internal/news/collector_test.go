package news

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-digest/internal/interfaces"
	"market-digest/internal/types"
)

type fakeSource struct {
	name  string
	feed  types.Feed
	err   error
	panic bool
}

func (f fakeSource) Name() string { return f.name }

func (f fakeSource) Fetch(context.Context) (types.Feed, error) {
	if f.panic {
		panic("malformed feed")
	}
	return f.feed, f.err
}

func entries(prefix string, n int) []types.FeedEntry {
	out := make([]types.FeedEntry, n)
	for i := range out {
		out[i] = types.FeedEntry{
			Title:     fmt.Sprintf("%s %d", prefix, i),
			Link:      fmt.Sprintf("https://example.com/%s/%d", prefix, i),
			Published: "Mon, 02 Jan 2006 15:04:05 GMT",
		}
	}
	return out
}

func TestPerFeedSlice(t *testing.T) {
	assert.Equal(t, 4, PerFeedSlice(6, 2))
	assert.Equal(t, 3, PerFeedSlice(6, 3))
	assert.Equal(t, 1, PerFeedSlice(2, 5))
	assert.Equal(t, 0, PerFeedSlice(6, 0))
}

func TestCollectMergesInFeedOrderAndTruncates(t *testing.T) {
	sources := []interfaces.FeedSource{
		fakeSource{name: "a", feed: types.Feed{Title: "Reuters", Entries: entries("r", 10)}},
		fakeSource{name: "b", feed: types.Feed{Title: "FT", Entries: entries("f", 10)}},
	}

	batch := NewCollector(sources, 6).Collect(context.Background())

	require.Len(t, batch.Headlines, 6)
	// 6/2+1 = 4 from the first feed, then the cut falls inside the second
	assert.Equal(t, "r 0", batch.Headlines[0].Title)
	assert.Equal(t, "r 3", batch.Headlines[3].Title)
	assert.Equal(t, "f 0", batch.Headlines[4].Title)
	assert.Equal(t, "Reuters", batch.Headlines[0].Source)
	assert.Equal(t, "FT", batch.Headlines[5].Source)
	assert.Empty(t, batch.Failures)
}

func TestCollectSkipsFailingFeeds(t *testing.T) {
	sources := []interfaces.FeedSource{
		fakeSource{name: "down", err: errors.New("dial tcp: timeout")},
		fakeSource{name: "bad", panic: true},
		fakeSource{name: "ok", feed: types.Feed{Entries: entries("ok", 3)}},
	}

	batch := NewCollector(sources, 6).Collect(context.Background())

	require.Len(t, batch.Failures, 2)
	assert.Equal(t, "down", batch.Failures[0].Source)
	assert.Equal(t, "bad", batch.Failures[1].Source)
	require.Len(t, batch.Headlines, 3)
	assert.Equal(t, "ok", batch.Headlines[0].Source, "feed name stands in for a missing feed title")
}

func TestCollectDedupesAcrossFeeds(t *testing.T) {
	shared := types.FeedEntry{Title: "Fed holds rates", Link: "https://a.example/1"}
	sources := []interfaces.FeedSource{
		fakeSource{name: "a", feed: types.Feed{Title: "A", Entries: []types.FeedEntry{shared, {Title: "Oil rises"}}}},
		fakeSource{name: "b", feed: types.Feed{Title: "B", Entries: []types.FeedEntry{{Title: "Fed holds rates", Link: "https://b.example/1"}, {Title: "Gold slips"}}}},
	}

	batch := NewCollector(sources, 10).Collect(context.Background())

	titles := make([]string, 0, len(batch.Headlines))
	for _, h := range batch.Headlines {
		titles = append(titles, h.Title)
	}
	assert.Equal(t, []string{"Fed holds rates", "Oil rises", "Gold slips"}, titles)
	assert.Equal(t, "https://a.example/1", batch.Headlines[0].URL, "first occurrence wins")
}

func TestCollectDedupesOnExactTitle(t *testing.T) {
	sources := []interfaces.FeedSource{
		fakeSource{name: "a", feed: types.Feed{Title: "A", Entries: []types.FeedEntry{
			{Title: "Fed holds rates"},
			{Title: "Fed  holds rates"},
			{Title: "<b>Fed</b> holds rates"},
			{Title: "Fed holds rates"},
		}}},
	}

	batch := NewCollector(sources, 10).Collect(context.Background())

	titles := make([]string, 0, len(batch.Headlines))
	for _, h := range batch.Headlines {
		titles = append(titles, h.Title)
	}
	assert.Equal(t, []string{"Fed holds rates", "Fed  holds rates", "<b>Fed</b> holds rates"}, titles)
}

func TestCollectFillsMissingFields(t *testing.T) {
	fixed := time.Date(2025, 3, 4, 13, 0, 0, 0, time.UTC)
	sources := []interfaces.FeedSource{
		fakeSource{name: "", feed: types.Feed{Entries: []types.FeedEntry{{Title: ""}}}},
	}
	c := NewCollector(sources, 6)
	c.now = func() time.Time { return fixed }

	batch := c.Collect(context.Background())

	require.Len(t, batch.Headlines, 1)
	h := batch.Headlines[0]
	assert.Equal(t, types.NA, h.Title)
	assert.Equal(t, "RSS", h.Source)
	assert.Equal(t, fixed.Format(time.RFC3339), h.Published)
}

func TestCollectInvariants(t *testing.T) {
	for maxItems := 1; maxItems <= 12; maxItems++ {
		for feeds := 1; feeds <= 4; feeds++ {
			sources := make([]interfaces.FeedSource, feeds)
			for i := range sources {
				// every feed repeats the same titles to force duplicates
				sources[i] = fakeSource{name: fmt.Sprint(i), feed: types.Feed{Entries: entries("dup", 5)}}
			}
			batch := NewCollector(sources, maxItems).Collect(context.Background())

			assert.LessOrEqual(t, len(batch.Headlines), maxItems)
			seen := map[string]bool{}
			for _, h := range batch.Headlines {
				assert.False(t, seen[h.Title], "duplicate title %q", h.Title)
				seen[h.Title] = true
			}
		}
	}
}

func TestCollectNoSources(t *testing.T) {
	batch := NewCollector(nil, 6).Collect(context.Background())
	assert.Empty(t, batch.Headlines)
}
