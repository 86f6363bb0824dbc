package kite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

type fakeHistorian struct {
	token    int
	interval string
	candles  []kiteconnect.HistoricalData
	err      error
}

func (f *fakeHistorian) GetHistoricalData(token int, interval string, _, _ time.Time, _, _ bool) ([]kiteconnect.HistoricalData, error) {
	f.token = token
	f.interval = interval
	return f.candles, f.err
}

func TestRecentCloses(t *testing.T) {
	h := &fakeHistorian{candles: []kiteconnect.HistoricalData{{Close: 100}, {Close: 102}, {Close: 101}}}
	p := &Provider{kc: h, now: time.Now}

	closes, err := p.RecentCloses(context.Background(), "256265", 2)

	require.NoError(t, err)
	assert.Equal(t, []float64{102, 101}, closes)
	assert.Equal(t, 256265, h.token)
	assert.Equal(t, "day", h.interval)
}

func TestRecentClosesBadToken(t *testing.T) {
	p := &Provider{kc: &fakeHistorian{}, now: time.Now}

	_, err := p.RecentCloses(context.Background(), "ES=F", 2)

	require.Error(t, err)
}

func TestRecentClosesUpstreamError(t *testing.T) {
	p := &Provider{kc: &fakeHistorian{err: errors.New("token expired")}, now: time.Now}

	_, err := p.RecentCloses(context.Background(), "256265", 2)

	require.ErrorContains(t, err, "token expired")
}
