package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"market-digest/internal/audit"
	"market-digest/internal/bundle"
	"market-digest/internal/calendar"
	"market-digest/internal/digest"
	"market-digest/internal/interfaces"
	"market-digest/internal/llm/claude"
	"market-digest/internal/llm/gemini"
	"market-digest/internal/llm/llmobs"
	"market-digest/internal/llm/noop"
	"market-digest/internal/llm/openai"
	"market-digest/internal/logger"
	"market-digest/internal/mailer"
	"market-digest/internal/mailer/mailerobs"
	"market-digest/internal/market"
	"market-digest/internal/market/kite"
	"market-digest/internal/market/marketobs"
	"market-digest/internal/market/yahoo"
	"market-digest/internal/narrative"
	"market-digest/internal/news"
	"market-digest/internal/store"
	"market-digest/internal/trace"
)

// initializeSystem loads .env and sets up logging and tracing
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig loads and validates the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig(flagConfig)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// initializeMarket returns the market data provider with observability
func initializeMarket(cfg *store.Config) interfaces.MarketDataProvider {
	var provider interfaces.MarketDataProvider
	switch cfg.Market.Provider {
	case "KITE":
		provider = kite.New(cfg.Secrets.KiteAPIKey, cfg.Secrets.KiteAccessToken)
	default:
		opts := []yahoo.Option{yahoo.WithRateLimit(cfg.Market.RateLimit)}
		if cfg.Market.BaseURL != "" {
			opts = append(opts, yahoo.WithBaseURL(cfg.Market.BaseURL))
		}
		provider = yahoo.New(opts...)
	}
	return marketobs.Wrap(provider)
}

// initializeFeeds builds one source per configured feed
func initializeFeeds(cfg *store.Config) []interfaces.FeedSource {
	sources := make([]interfaces.FeedSource, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		if f.Kind == "HTML" {
			sources = append(sources, news.NewHTMLSource(f.Name, f.URL, news.ArticleSelectors{
				Item:      f.Selectors.Item,
				Title:     f.Selectors.Title,
				Link:      f.Selectors.Link,
				Published: f.Selectors.Published,
			}))
			continue
		}
		sources = append(sources, news.NewRSSSource(f.Name, f.URL))
	}
	return sources
}

// initializeCompleter returns the completion backend with observability
func initializeCompleter(ctx context.Context, cfg *store.Config) (interfaces.Completer, error) {
	var completer interfaces.Completer

	switch cfg.LLM.Provider {
	case "OPENAI":
		completer = openai.New(cfg.Secrets.OpenAIKey, cfg.LLM.Model)
	case "CLAUDE":
		completer = claude.New(cfg.Secrets.AnthropicKey, cfg.LLM.Model)
	case "GEMINI":
		c, err := gemini.New(ctx, cfg.Secrets.GeminiKey, cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		completer = c
	default:
		completer = noop.New()
		logger.Warn(ctx, "No LLM provider configured - every digest will carry the fallback narrative")
	}

	return llmobs.Wrap(completer), nil
}

// initializeMailer returns the SMTP transport with observability
func initializeMailer(cfg *store.Config) interfaces.Mailer {
	m := mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.Secrets.SenderEmail, cfg.Secrets.SenderPassword)
	return mailerobs.Wrap(m)
}

// initializeAudit prepares the snapshot sink and applies retention
func initializeAudit(ctx context.Context, cfg *store.Config) *audit.FileSink {
	sink := audit.NewFileSink(cfg.Audit.Dir)
	n, err := sink.CompressOlder(cfg.Audit.RetentionDays)
	if err != nil {
		logger.Warn(ctx, "Failed to compress old snapshots", "error", err)
	} else if n > 0 {
		logger.Info(ctx, "Compressed old snapshots", "count", n, "dir", cfg.Audit.Dir)
	}
	return sink
}

// buildRunner wires every component of a run from the config
func buildRunner(ctx context.Context, cfg *store.Config) (*digest.Runner, error) {
	settings, err := digest.SettingsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	completer, err := initializeCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deps := digest.Deps{
		Market:   market.NewCollector(initializeMarket(cfg), cfg.Instruments),
		News:     news.NewCollector(initializeFeeds(cfg), cfg.MaxHeadlines),
		Calendar: calendar.NewCollector(calendar.NewSource(cfg), cfg.Location),
		Builder:  bundle.NewBuilder(cfg.Location),
		Narrator: narrative.NewGenerator(completer, cfg.Temperature(), cfg.LLM.MaxTokens),
		Mailer:   initializeMailer(cfg),
		Audit:    initializeAudit(ctx, cfg),
	}
	return digest.NewRunner(settings, deps), nil
}
