package renderer

import "strings"

// NormalizePhone strips everything but digits from a phone number, so
// "010-1234-5678" and "010 1234 5678" address the same recipient.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskPhone hides the middle digits of a normalized phone number for log
// output, e.g. "01012345678" becomes "010****5678". Full values are only
// ever used in transit to the channel gateway.
func MaskPhone(raw string) string {
	digits := NormalizePhone(raw)
	if len(digits) < 8 {
		return strings.Repeat("*", len(digits))
	}
	return digits[:3] + strings.Repeat("*", len(digits)-7) + digits[len(digits)-4:]
}
