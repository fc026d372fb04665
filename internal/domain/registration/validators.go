package registration

import "strings"

const (
	// AadhaarLength is the number of digits in a normalized Aadhaar number
	AadhaarLength = 12
	// PhoneLength is the number of digits in a normalized phone or WhatsApp number
	PhoneLength = 10
)

// digitsOnly strips every non-digit character
func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeAadhaar returns the digits of s and whether exactly twelve were present.
// "1234-5678-9012" normalizes to "123456789012".
func NormalizeAadhaar(s string) (string, bool) {
	d := digitsOnly(s)
	return d, len(d) == AadhaarLength
}

// NormalizePhone returns the digits of s and whether exactly ten were present
func NormalizePhone(s string) (string, bool) {
	d := digitsOnly(s)
	return d, len(d) == PhoneLength
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
