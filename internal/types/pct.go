package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// NA is how a missing value is shown to readers and to the text generator.
const NA = "n/a"

// Pct is a signed percentage change that may be missing. The zero value is
// the missing marker, so a Pct is never silently read as 0%.
type Pct struct {
	value float64
	ok    bool
}

// Missing is the explicit missing marker.
var Missing = Pct{}

// Percent wraps v. NaN and infinities collapse to Missing.
func Percent(v float64) Pct {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return Pct{value: v, ok: true}
}

// PctChange computes (latest - previous) / previous * 100.
// A zero previous close yields Missing.
func PctChange(previous, latest float64) Pct {
	if previous == 0 {
		return Missing
	}
	return Percent((latest - previous) / previous * 100)
}

func (p Pct) Value() (float64, bool) { return p.value, p.ok }

func (p Pct) IsMissing() bool { return !p.ok }

func (p Pct) String() string {
	if !p.ok {
		return NA
	}
	return fmt.Sprintf("%+.2f%%", p.value)
}

// MarshalJSON writes null for the missing marker.
func (p Pct) MarshalJSON() ([]byte, error) {
	if !p.ok {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}

func (p *Pct) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*p = Missing
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("pct: %w", err)
	}
	*p = Percent(v)
	return nil
}
