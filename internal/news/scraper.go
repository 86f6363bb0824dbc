package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"market-digest/internal/interfaces"
	"market-digest/internal/logger"
	"market-digest/internal/types"
)

// ArticleSelectors defines CSS selectors for extracting headlines from a
// listing page
type ArticleSelectors struct {
	Item      string
	Title     string
	Link      string
	Published string
}

// HTMLSource scrapes a news listing page that has no feed
type HTMLSource struct {
	name      string
	pageURL   string
	selectors ArticleSelectors
}

var _ interfaces.FeedSource = (*HTMLSource)(nil)

func NewHTMLSource(name, pageURL string, selectors ArticleSelectors) *HTMLSource {
	if selectors.Link == "" {
		selectors.Link = selectors.Title
	}
	return &HTMLSource{name: name, pageURL: pageURL, selectors: selectors}
}

func (s *HTMLSource) Name() string {
	if s.name != "" {
		return s.name
	}
	return s.pageURL
}

func (s *HTMLSource) Fetch(ctx context.Context) (types.Feed, error) {
	base, err := url.Parse(s.pageURL)
	if err != nil {
		return types.Feed{}, fmt.Errorf("invalid page url %q: %w", s.pageURL, err)
	}

	feed := types.Feed{Title: s.name}

	c := colly.NewCollector(
		colly.AllowedDomains(base.Hostname()),
		colly.MaxDepth(1),
		colly.StdlibContext(ctx),
	)

	// Set user agent to avoid being blocked
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(s.selectors.Item, func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.ChildText(s.selectors.Title))
		if title == "" {
			return
		}

		link := firstHref(e.DOM.Find(s.selectors.Link))
		if link != "" {
			link = e.Request.AbsoluteURL(link)
		}

		var published string
		if s.selectors.Published != "" {
			published = strings.TrimSpace(e.ChildAttr(s.selectors.Published, "datetime"))
			if published == "" {
				published = strings.TrimSpace(e.ChildText(s.selectors.Published))
			}
		}

		feed.Entries = append(feed.Entries, types.FeedEntry{
			Title:     title,
			Link:      link,
			Published: published,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Debug(ctx, "Scraping error", "source", s.Name(), "url", r.Request.URL.String(), "status", r.StatusCode, "error", err)
	})

	if err := c.Visit(s.pageURL); err != nil {
		return types.Feed{}, fmt.Errorf("failed to visit %s: %w", s.pageURL, err)
	}
	c.Wait()

	return feed, nil
}

// firstHref returns the first non-empty href in sel. Listings often carry
// an empty anchor (image or share link) ahead of the article link.
func firstHref(sel *goquery.Selection) string {
	var href string
	sel.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if v, ok := a.Attr("href"); ok && strings.TrimSpace(v) != "" {
			href = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return href
}
