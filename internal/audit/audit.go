// Package audit persists one JSON snapshot of the fact bundle per run.
package audit

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"market-digest/internal/interfaces"
)

const fileLayout = "bundle_20060102_150405.json"

// Placeholder is written when a run never produced a bundle.
type Placeholder struct {
	Error string `json:"error"`
	TS    string `json:"ts"`
}

func NoBundle(ts string) Placeholder {
	return Placeholder{Error: "no bundle", TS: ts}
}

// FileSink writes snapshots into a directory, creating it on demand.
type FileSink struct {
	dir string
	mu  sync.Mutex
}

var _ interfaces.AuditSink = (*FileSink)(nil)

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Dir() string { return s.dir }

// Filename is the snapshot name for a run started at t, in UTC.
func Filename(t time.Time) string {
	return t.UTC().Format(fileLayout)
}

// Write stores payload as indented JSON and returns the file path.
func (s *FileSink) Write(payload any, at time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(s.dir, Filename(at))
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// CompressOlder gzips snapshots last modified more than retentionDays ago
// and removes the originals. Zero or less disables it. Files that cannot
// be read are left in place.
func (s *FileSink) CompressOlder(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	compressed := 0
	err := filepath.WalkDir(s.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == s.dir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(p) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		// an earlier pass already compressed it
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			return nil
		}
		_ = os.Remove(p)
		compressed++
		return nil
	})
	return compressed, err
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
