package narrative

// SystemPrompt is sent with both stages.
const SystemPrompt = `You are an ultra-concise market writer. Only use facts provided in FACT_BUNDLE.
Never speculate or add numbers not present. If data is missing, write 'n/a'.
Keep to word limits. Include compact source tags in brackets like [BLS], [CME], [Reuters].`

const AdvisorPrompt = `Using FACT_BUNDLE, write <=120 words:
1) One-sentence narrative for advisors (risk-on/off) using futures, yields, USD, and an overnight headline.
2) Three bullets: Data today, Rates & FX, Headlines. Each bullet: 1–2 numbers + a source tag.
3) End with: Next: <upcoming releases with ET times>.
No advice/opinions. Indices and macro assets only.`

const ClientPrompt = `Rewrite the Advisor Brief in plain language for clients in <=120 words.
Avoid jargon (say 'interest rates' not 'basis points'). Keep 2–3 short sentences and 2 bullets max.
No inline sources; finish with 'Sources: public government & exchange data.'`

// ClientDisclosure closes every client-facing text, generated or fallback.
const ClientDisclosure = "Sources: public government & exchange data."

const (
	fallbackAdvisor = "Data unavailable from public sources at this time. We'll retry next run.\nReason: %v"
	fallbackClient  = "Markets update is temporarily unavailable. We’re checking feeds and will resume shortly.\n" + ClientDisclosure
)
