package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"market-digest/internal/types"
)

// TimestampLayout is the reader-facing run time, e.g.
// "Thu Mar 06, 2025 — 08:30 AM EST".
const TimestampLayout = "Mon Jan 02, 2006 — 03:04 PM MST"

const Disclaimer = "For informational purposes only. Not a recommendation. Sources: public data."

var emailTemplate = template.Must(template.New("digest").Parse(`<div style="font-family:Inter,Arial,sans-serif;font-size:14px;line-height:1.45;color:#111">
  <h3 style="margin:0 0 8px">Daily Macro — {{ .Timestamp }}</h3>
  <p style="white-space:pre-wrap">{{ .Advisor }}</p>
  <hr style="border:none;border-top:1px solid #ddd;margin:12px 0"/>
  <h4 style="margin:0 0 6px">Client-Safe</h4>
  <p style="white-space:pre-wrap">{{ .Client }}</p>
  <p style="font-size:12px;color:#666;margin-top:12px">{{ .Disclaimer }}</p>
</div>
`))

func Timestamp(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(TimestampLayout)
}

func Subject(ts string) string {
	return "Daily Macro — " + ts
}

// Render fills the email body. Narrative text is HTML-escaped; line breaks
// survive through the pre-wrap style.
func Render(ts string, pair types.NarrativePair) (string, error) {
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, struct {
		Timestamp  string
		Advisor    string
		Client     string
		Disclaimer string
	}{ts, pair.AdvisorText, pair.ClientText, Disclaimer})
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}
