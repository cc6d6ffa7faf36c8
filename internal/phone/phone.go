// Package phone canonicalizes phone numbers to a single comparable form.
package phone

import (
	"fmt"
	"strings"
)

// Normalize canonicalizes a raw phone number to a +-prefixed digit string.
// Ten-digit numbers are assumed to be NANP and get a +1 prefix; eleven-digit
// numbers starting with 1 get a bare +; anything else ten digits or longer is
// kept as-is behind a +. Shorter inputs are rejected.
func Normalize(raw string) (string, error) {
	digits := Digits(raw)
	if len(digits) < 10 {
		return "", fmt.Errorf("unnormalizable phone number %q", raw)
	}

	switch {
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, nil
	default:
		return "+" + digits, nil
	}
}

// Digits strips a phone number to the digit-only form the bank hardware
// expects on the wire.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
