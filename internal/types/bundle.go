package types

// Metric is one per-instrument record inside a category.
type Metric struct {
	Pct Pct `json:"pct"`
}

type Indices struct {
	ES Metric `json:"ES"`
	NQ Metric `json:"NQ"`
	DJ Metric `json:"DJ"`
}

type RatesFX struct {
	UST10yPctChg Pct `json:"UST10y_pctchg"`
	DXYPct       Pct `json:"DXY_pct"`
}

type Commodities struct {
	WTIPct  Pct `json:"WTI_pct"`
	GoldPct Pct `json:"Gold_pct"`
}

type VolCredit struct {
	VIXLvlPct Pct `json:"VIX_lvl_pct"`
}

type Audit struct {
	Sources       []string `json:"sources"`
	GeneratedAt   string   `json:"generated_at"`
	CorrelationID string   `json:"correlation_id"`
}

// FactBundle is the only fact source the narrative stages may draw from.
// Treat a built bundle as read-only.
type FactBundle struct {
	RunID         string            `json:"run_id"`
	Indices       Indices           `json:"indices"`
	RatesFX       RatesFX           `json:"rates_fx"`
	Commodities   Commodities       `json:"commodities"`
	VolCredit     VolCredit         `json:"vol_credit"`
	Overnight     map[string]string `json:"overnight"`
	CalendarToday []CalendarEvent   `json:"calendar_today"`
	Headlines     []Headline        `json:"headlines"`
	Audit         Audit             `json:"audit"`
}

// CategoryKeys lists every market-metric key per category as it appears in
// the serialized bundle.
var CategoryKeys = map[string][]string{
	"indices":     {"ES", "NQ", "DJ"},
	"rates_fx":    {"UST10y_pctchg", "DXY_pct"},
	"commodities": {"WTI_pct", "Gold_pct"},
	"vol_credit":  {"VIX_lvl_pct"},
}

// Metrics flattens the market fields, keyed "category.key".
func (b FactBundle) Metrics() map[string]Pct {
	return map[string]Pct{
		"indices.ES":             b.Indices.ES.Pct,
		"indices.NQ":             b.Indices.NQ.Pct,
		"indices.DJ":             b.Indices.DJ.Pct,
		"rates_fx.UST10y_pctchg": b.RatesFX.UST10yPctChg,
		"rates_fx.DXY_pct":       b.RatesFX.DXYPct,
		"commodities.WTI_pct":    b.Commodities.WTIPct,
		"commodities.Gold_pct":   b.Commodities.GoldPct,
		"vol_credit.VIX_lvl_pct": b.VolCredit.VIXLvlPct,
	}
}
