package prompt

import (
	"strings"

	"finance-qa-be/pkg/assistant"
)

// Mode is one of the six topical presets that shape the instruction text.
type Mode string

const (
	ModeMarketsMacro    Mode = "Markets & Macro (Education)"
	ModeInvesting101    Mode = "Investing 101 (Asset Classes & Diversification)"
	ModeRiskPortfolio   Mode = "Risk & Portfolio Concepts"
	ModePersonalFinance Mode = "Personal Finance (Budget, Debt, Goals)"
	ModeFraudScamWatch  Mode = "Fraud & Scam Watch (2025)"
	ModeCryptoBasics    Mode = "Crypto Basics (Education)"

	DefaultMode = ModeMarketsMacro
)

const modeField = "mode"

// modeOrder is the display order used by the UI radio list.
var modeOrder = []Mode{
	ModeMarketsMacro,
	ModeInvesting101,
	ModeRiskPortfolio,
	ModePersonalFinance,
	ModeFraudScamWatch,
	ModeCryptoBasics,
}

var modeDetails = map[Mode]string{
	ModeMarketsMacro:    "Explain macro indicators (inflation, rates, growth, jobs), yield curves, and high-level effects on asset classes.",
	ModeInvesting101:    "Explain stocks, bonds, ETFs, diversification, compounding, rebalancing, and fee awareness.",
	ModeRiskPortfolio:   "Explain risk tolerance vs. capacity, volatility, drawdowns, correlation, and dollar-cost averaging.",
	ModePersonalFinance: "Discuss budgeting, emergency funds, debt payoff, goal setting, and insurance basics (non-jurisdictional).",
	ModeFraudScamWatch:  "Explain 2025 scams: deepfakes, fake 'guaranteed returns', pump groups, phishing, fake AI trading bots. Include safety tips.",
	ModeCryptoBasics:    "Explain blockchains, wallets, private keys, stablecoins, custody, and volatility. No token picks or price calls.",
}

// Modes returns the six presets in display order.
func Modes() []Mode {
	out := make([]Mode, len(modeOrder))
	copy(out, modeOrder)
	return out
}

// Valid reports whether m is one of the six presets.
func (m Mode) Valid() bool {
	_, ok := modeDetails[m]
	return ok
}

// Guidance returns the mode-specific fragment, or a ConfigError for unknown modes.
func (m Mode) Guidance() (string, error) {
	detail, ok := modeDetails[m]
	if !ok {
		return "", &assistant.ConfigError{Field: modeField, Value: string(m)}
	}
	return detail, nil
}

// ParseMode validates free-form input (surrounding whitespace is ignored).
func ParseMode(raw string) (Mode, error) {
	m := Mode(strings.TrimSpace(raw))
	if !m.Valid() {
		return "", &assistant.ConfigError{Field: modeField, Value: raw}
	}
	return m, nil
}
