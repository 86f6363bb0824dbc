package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every configuration failure. Callers treat it as
// fatal before any network activity.
var ErrInvalidConfig = errors.New("invalid configuration")

// Instrument maps a short key used in the fact bundle to a provider symbol.
type Instrument struct {
	Key    string `yaml:"key" validate:"required"`
	Symbol string `yaml:"symbol" validate:"required"`
}

// Feed is one headline source. Kind is RSS (default) or HTML; HTML feeds
// are listing pages scraped with CSS selectors.
type Feed struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url" validate:"required,url"`
	Kind      string `yaml:"kind" validate:"omitempty,oneof=RSS HTML"`
	Selectors struct {
		Item      string `yaml:"item"`
		Title     string `yaml:"title"`
		Link      string `yaml:"link"`
		Published string `yaml:"published"`
	} `yaml:"selectors"`
}

// CalendarEntry is a statically configured release.
type CalendarEntry struct {
	TimeET    string `yaml:"time_et"`
	Name      string `yaml:"name"`
	Consensus string `yaml:"consensus"`
	Source    string `yaml:"source"`
}

// Config is built once at startup and passed to every component. Nothing
// mutates it after Load returns.
type Config struct {
	Timezone string         `yaml:"timezone" validate:"required"`
	Location *time.Location `yaml:"-"`

	// EnforceSlot gates a run on the local wall clock matching Slot exactly.
	EnforceSlot bool   `yaml:"enforce_slot"`
	Slot        string `yaml:"slot" validate:"required"`
	Schedule    string `yaml:"schedule"`

	Instruments []Instrument `yaml:"instruments" validate:"required,min=1,dive"`

	Market struct {
		Provider  string  `yaml:"provider" validate:"oneof=YAHOO KITE"`
		BaseURL   string  `yaml:"base_url"`
		RateLimit float64 `yaml:"rate_limit" validate:"gt=0"`
	} `yaml:"market"`

	Feeds        []Feed `yaml:"feeds" validate:"dive"`
	MaxHeadlines int    `yaml:"max_headlines" validate:"gte=1"`

	Calendar struct {
		Provider  string          `yaml:"provider" validate:"oneof=STATIC FINNHUB"`
		Countries []string        `yaml:"countries"`
		Events    []CalendarEntry `yaml:"events"`
	} `yaml:"calendar"`

	LLM struct {
		Provider string `yaml:"provider" validate:"oneof=OPENAI CLAUDE GEMINI NONE"`
		Model    string `yaml:"model"`
		// nil means unset; an explicit 0 is kept.
		Temperature *float64 `yaml:"temperature" validate:"omitempty,gte=0,lte=2"`
		MaxTokens   int      `yaml:"max_tokens" validate:"gte=1"`
	} `yaml:"llm"`

	SMTP struct {
		Host string `yaml:"host" validate:"required"`
		Port int    `yaml:"port" validate:"gt=0,lte=65535"`
	} `yaml:"smtp"`

	Audit struct {
		Dir           string `yaml:"dir" validate:"required"`
		RetentionDays int    `yaml:"retention_days" validate:"gte=0"`
	} `yaml:"audit"`

	Secrets Secrets `yaml:"-"`
}

// Secrets come from the environment only.
type Secrets struct {
	OpenAIKey       string
	AnthropicKey    string
	GeminiKey       string
	FinnhubKey      string
	KiteAPIKey      string
	KiteAccessToken string
	SenderEmail     string   `validate:"required,email"`
	SenderPassword  string   `validate:"required"`
	Recipients      []string `validate:"required,min=1,dive,email"`
}

// DefaultInstruments is the futures / macro set the digest reports on.
// UST10Y is ^TNX, which quotes the yield times ten; its percent change is
// unaffected by the scale.
func DefaultInstruments() []Instrument {
	return []Instrument{
		{Key: "ES", Symbol: "ES=F"},
		{Key: "NQ", Symbol: "NQ=F"},
		{Key: "DJ", Symbol: "YM=F"},
		{Key: "VIX", Symbol: "^VIX"},
		{Key: "DXY", Symbol: "DX-Y.NYB"},
		{Key: "WTI", Symbol: "CL=F"},
		{Key: "GOLD", Symbol: "GC=F"},
		{Key: "UST10Y", Symbol: "^TNX"},
	}
}

func DefaultFeeds() []Feed {
	return []Feed{
		{Name: "Reuters Business", URL: "https://feeds.reuters.com/reuters/businessNews", Kind: "RSS"},
		{Name: "Financial Times", URL: "https://www.ft.com/?format=rss", Kind: "RSS"},
	}
}

// DefaultTemperature applies when the file does not set llm.temperature.
const DefaultTemperature = 0.2

// Temperature is the configured sampling temperature.
func (c *Config) Temperature() float64 {
	if c.LLM.Temperature == nil {
		return DefaultTemperature
	}
	return *c.LLM.Temperature
}

func defaultModel(provider string) string {
	switch provider {
	case "CLAUDE":
		return "claude-3-5-haiku-latest"
	case "GEMINI":
		return "gemini-2.0-flash"
	default:
		return "gpt-4o-mini"
	}
}

// LoadConfig reads an optional YAML file, overlays environment variables
// and validates the result. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
			}
		}
	}

	c.applyEnv()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("ENFORCE_830_ET"); v != "" {
		c.EnforceSlot = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = strings.ToUpper(v)
	}
	if v := os.Getenv("MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("MARKET_PROVIDER"); v != "" {
		c.Market.Provider = strings.ToUpper(v)
	}
	if v := os.Getenv("CALENDAR_PROVIDER"); v != "" {
		c.Calendar.Provider = strings.ToUpper(v)
	}

	c.Secrets = Secrets{
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:       os.Getenv("GEMINI_API_KEY"),
		FinnhubKey:      os.Getenv("FINNHUB_API_KEY"),
		KiteAPIKey:      os.Getenv("KITE_API_KEY"),
		KiteAccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
		SenderEmail:     strings.TrimSpace(os.Getenv("SENDER_EMAIL")),
		SenderPassword:  os.Getenv("SENDER_APP_PASSWORD"),
		Recipients:      SplitRecipients(os.Getenv("RECIPIENTS")),
	}
}

func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.Slot == "" {
		c.Slot = "08:30"
	}
	if c.Schedule == "" {
		c.Schedule = "30 8 * * 1-5"
	}
	if len(c.Instruments) == 0 {
		c.Instruments = DefaultInstruments()
	}
	if c.Market.Provider == "" {
		c.Market.Provider = "YAHOO"
	}
	if c.Market.RateLimit == 0 {
		c.Market.RateLimit = 2
	}
	if len(c.Feeds) == 0 {
		c.Feeds = DefaultFeeds()
	}
	for i := range c.Feeds {
		if c.Feeds[i].Kind == "" {
			c.Feeds[i].Kind = "RSS"
		}
		c.Feeds[i].Kind = strings.ToUpper(c.Feeds[i].Kind)
	}
	if c.MaxHeadlines == 0 {
		c.MaxHeadlines = 6
	}
	if c.Calendar.Provider == "" {
		c.Calendar.Provider = "STATIC"
	}
	if len(c.Calendar.Countries) == 0 {
		c.Calendar.Countries = []string{"US"}
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "OPENAI"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaultModel(c.LLM.Provider)
	}
	if c.LLM.Temperature == nil {
		t := DefaultTemperature
		c.LLM.Temperature = &t
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 300
	}
	if c.SMTP.Host == "" {
		c.SMTP.Host = "smtp.gmail.com"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 465
	}
	if c.Audit.Dir == "" {
		c.Audit.Dir = ".out"
	}
}

// Validate checks the struct tags, provider credentials, the timezone and
// the strict slot. It resolves Location as a side effect.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: missing or invalid settings: %s. See .env.example", ErrInvalidConfig, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch c.LLM.Provider {
	case "OPENAI":
		if c.Secrets.OpenAIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for provider OPENAI", ErrInvalidConfig)
		}
	case "CLAUDE":
		if c.Secrets.AnthropicKey == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY is required for provider CLAUDE", ErrInvalidConfig)
		}
	case "GEMINI":
		if c.Secrets.GeminiKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required for provider GEMINI", ErrInvalidConfig)
		}
	}
	if c.Calendar.Provider == "FINNHUB" && c.Secrets.FinnhubKey == "" {
		return fmt.Errorf("%w: FINNHUB_API_KEY is required for calendar provider FINNHUB", ErrInvalidConfig)
	}
	if c.Market.Provider == "KITE" && (c.Secrets.KiteAPIKey == "" || c.Secrets.KiteAccessToken == "") {
		return fmt.Errorf("%w: KITE_API_KEY and KITE_ACCESS_TOKEN are required for market provider KITE", ErrInvalidConfig)
	}
	for _, f := range c.Feeds {
		if f.Kind == "HTML" && (f.Selectors.Item == "" || f.Selectors.Title == "") {
			return fmt.Errorf("%w: HTML feed %q needs item and title selectors", ErrInvalidConfig, f.URL)
		}
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	c.Location = loc

	if _, _, err := ParseSlot(c.Slot); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := ParseSchedule(c.Schedule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ParseSchedule parses a standard five-field cron expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return sched, nil
}

// ParseSlot parses an "HH:MM" wall-clock slot.
func ParseSlot(slot string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(slot))
	if err != nil {
		return 0, 0, fmt.Errorf("slot %q must be HH:MM", slot)
	}
	return t.Hour(), t.Minute(), nil
}

// SplitRecipients splits a comma separated list, trimming blanks.
func SplitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
