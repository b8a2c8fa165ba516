package prompt

import "strings"

const (
	// Caption is shown under the title of every client.
	Caption = "For learning purposes only: not financial, investment, legal, tax, or accounting advice. " +
		"Always do your own research and consult a licensed professional."

	Disclaimer = "This assistant provides **general educational information** only. " +
		"It cannot make recommendations or predictions. Seek a qualified advisor."

	InputPlaceholder = "Ask a finance question (education only, no recommendations)."
)

// Sample is a canned question a user can submit with one click.
type Sample struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

var samples = []Sample{
	{
		Key:    "rates-bonds",
		Label:  "How do rates affect bonds?",
		Prompt: "Explain how interest rate changes typically affect bond prices and duration risk (education only).",
	},
	{
		Key:    "diversification",
		Label:  "What is diversification?",
		Prompt: "What does diversification mean in investing, and why might investors consider it over concentrating in one stock?",
	},
	{
		Key:    "scams-2025",
		Label:  "Spotting 2025 scams",
		Prompt: "List common 2025 finance scams and a checklist to avoid them (no links).",
	},
}

// Samples returns the sample prompts in display order.
func Samples() []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)
	return out
}

// LookupSample finds a sample by key, ignoring case and surrounding space.
func LookupSample(key string) (Sample, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, s := range samples {
		if s.Key == key {
			return s, true
		}
	}
	return Sample{}, false
}
