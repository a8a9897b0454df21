package domain

// Provider names for AI analysis backends.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ProviderResult holds the raw response from a single AI provider.
type ProviderResult struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Content  string `json:"content,omitempty"`
	Err      string `json:"error,omitempty"`
}

// Failed reports whether the provider call returned an error.
func (p *ProviderResult) Failed() bool {
	return p.Err != ""
}

// Analysis is the merged output of the dual-provider analysis agent.
// Insights preserves first-seen order with the first provider's lines
// first; duplicates across providers appear once.
type Analysis struct {
	Providers []ProviderResult `json:"providers"`
	Insights  []string         `json:"insights"`
	Degraded  bool             `json:"degraded,omitempty"`
}
