package news

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"market-digest/internal/interfaces"
	"market-digest/internal/types"
)

// RSSSource reads an RSS or Atom feed.
type RSSSource struct {
	name   string
	url    string
	parser *gofeed.Parser
}

var _ interfaces.FeedSource = (*RSSSource)(nil)

func NewRSSSource(name, url string) *RSSSource {
	return &RSSSource{name: name, url: url, parser: gofeed.NewParser()}
}

func (s *RSSSource) Name() string {
	if s.name != "" {
		return s.name
	}
	return s.url
}

func (s *RSSSource) Fetch(ctx context.Context) (types.Feed, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return types.Feed{}, fmt.Errorf("fetching %s: %w", s.Name(), err)
	}

	out := types.Feed{Title: strings.TrimSpace(feed.Title)}
	out.Entries = make([]types.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		out.Entries = append(out.Entries, types.FeedEntry{
			Title:     item.Title,
			Link:      item.Link,
			Published: item.Published,
		})
	}
	return out, nil
}
