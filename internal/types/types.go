package types

import "time"

// Result carries either a value or the error that prevented producing it.
type Result[T any] struct {
	Value T
	Err   error
}

func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

func (r Result[T]) IsOk() bool { return r.Err == nil }

// MarketSnapshot maps instrument keys (ES, NQ, UST10Y, ...) to their change
// over the last two sessions.
type MarketSnapshot struct {
	Quotes      map[string]Pct `json:"quotes"`
	CollectedAt time.Time      `json:"collected_at"`
	Provider    string         `json:"provider"`
}

// Get returns Missing for keys that were never collected.
func (s MarketSnapshot) Get(key string) Pct {
	if s.Quotes == nil {
		return Missing
	}
	return s.Quotes[key]
}

type Headline struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Published string `json:"published"`
}

type CalendarEvent struct {
	TimeET    string `json:"time_et"`
	Name      string `json:"name"`
	Consensus string `json:"consensus"`
	Source    string `json:"source"`
}

// Feed is one parsed news feed.
type Feed struct {
	Title   string
	Entries []FeedEntry
}

type FeedEntry struct {
	Title     string
	Link      string
	Published string
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// CompletionRequest is the provider-agnostic input of one generation call.
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// NarrativePair holds the two texts embedded in one digest.
type NarrativePair struct {
	AdvisorText string `json:"advisor_text"`
	ClientText  string `json:"client_text"`
	Fallback    bool   `json:"fallback"`
}

// Email is a rendered digest ready for a transport.
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}
