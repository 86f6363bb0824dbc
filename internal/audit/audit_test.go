package audit

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-digest/internal/types"
)

func TestFilenameUsesUTC(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	at := time.Date(2025, 3, 6, 8, 30, 5, 0, ny)
	assert.Equal(t, "bundle_20250306_133005.json", Filename(at))
}

func TestWriteRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".out")
	sink := NewFileSink(dir)

	bundle := types.FactBundle{
		RunID:     "2025-03-06T08:30:00-05:00",
		Indices:   types.Indices{ES: types.Metric{Pct: types.Percent(0.25)}},
		Overnight: map[string]string{},
		Headlines: []types.Headline{{Title: "A"}, {Title: "B"}},
		Audit:     types.Audit{Sources: []string{"RSS", "YahooFinance"}},
	}
	at := time.Date(2025, 3, 6, 13, 30, 0, 0, time.UTC)

	p, err := sink.Write(bundle, at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bundle_20250306_133000.json"), p)

	raw, err := os.ReadFile(p)
	require.NoError(t, err)

	var back types.FactBundle
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, bundle.Metrics(), back.Metrics())
	assert.Len(t, back.Headlines, 2)
	assert.Equal(t, bundle.Audit.Sources, back.Audit.Sources)
}

func TestWritePlaceholder(t *testing.T) {
	sink := NewFileSink(t.TempDir())
	p, err := sink.Write(NoBundle("Thu Mar 06, 2025 — 08:30 AM EST"), time.Now())
	require.NoError(t, err)

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, map[string]string{"error": "no bundle", "ts": "Thu Mar 06, 2025 — 08:30 AM EST"}, got)
}

func TestWriteUnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewFileSink(file).Write(map[string]int{"a": 1}, time.Now())
	require.Error(t, err)
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)

	oldAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	oldPath, err := sink.Write(map[string]string{"run": "old"}, oldAt)
	require.NoError(t, err)
	stale := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(oldPath, stale, stale))

	newPath, err := sink.Write(map[string]string{"run": "new"}, time.Now())
	require.NoError(t, err)

	n, err := sink.CompressOlder(7)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, newPath)

	f, err := os.Open(oldPath + ".gz")
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	body, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"run":"old"}`, string(body))
}

func TestCompressOlderDisabledOrMissingDir(t *testing.T) {
	n, err := NewFileSink(t.TempDir()).CompressOlder(0)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = NewFileSink(filepath.Join(t.TempDir(), "absent")).CompressOlder(3)
	require.NoError(t, err)
	assert.Zero(t, n)
}
