// Package kite reads daily closes from Zerodha Kite Connect historical candles.
// Instrument symbols are Kite instrument tokens.
package kite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"market-digest/internal/interfaces"
)

// lookbackDays covers weekends and exchange holidays.
const lookbackDays = 10

// historian is the subset of the Kite client this provider needs.
type historian interface {
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

type Provider struct {
	kc  historian
	now func() time.Time
}

var _ interfaces.MarketDataProvider = (*Provider)(nil)

func New(apiKey, accessToken string) *Provider {
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return &Provider{kc: kc, now: time.Now}
}

func (p *Provider) Name() string { return "KiteConnect" }

// RecentCloses returns up to n of the latest daily closes, oldest first.
// The Kite client takes no context, so ctx is only checked before the call.
func (p *Provider) RecentCloses(ctx context.Context, symbol string, n int) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token, err := strconv.Atoi(symbol)
	if err != nil {
		return nil, fmt.Errorf("kite instrument token %q: %w", symbol, err)
	}

	to := p.now()
	from := to.AddDate(0, 0, -lookbackDays)
	candles, err := p.kc.GetHistoricalData(token, "day", from, to, false, false)
	if err != nil {
		return nil, fmt.Errorf("kite historical %d: %w", token, err)
	}

	closes := make([]float64, 0, len(candles))
	for _, c := range candles {
		closes = append(closes, c.Close)
	}
	if n > 0 && len(closes) > n {
		closes = closes[len(closes)-n:]
	}
	return closes, nil
}
