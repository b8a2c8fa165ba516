package safety

import "strings"

// Advisory is the banner shown when a message trips a risk flag.
const Advisory = "⚠️ Message includes terms seen in scams. Verify sources, never share private keys, and consult professionals."

// RiskFlags are lower-case phrases commonly seen in scam pitches.
var RiskFlags = []string{
	"guaranteed returns",
	"insider tip",
	"all-in",
	"margin call",
	"loan at high interest",
	"get rich quick",
	"secret strategy",
	"send crypto now",
	"seed phrase",
	"private key",
	"double your money",
}

// Scan reports whether text contains any risk flag, ignoring case.
func Scan(text string) bool {
	return len(Matches(text)) > 0
}

// Matches returns the flags found in text, in RiskFlags order.
func Matches(text string) []string {
	if text == "" {
		return nil
	}

	lowered := strings.ToLower(text)
	var found []string
	for _, flag := range RiskFlags {
		if strings.Contains(lowered, flag) {
			found = append(found, flag)
		}
	}
	return found
}
