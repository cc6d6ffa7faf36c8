package spam

import (
	"regexp"
	"strings"
)

// Google prefixes its codes, e.g. "G-123456".
var googleCode = regexp.MustCompile(`\bG-\d{6}\b`)

// Providers whose messages are always verification traffic.
var verificationProviders = []string{
	"ticketmaster",
	"axs",
	"seatgeek",
	"uber",
	"doordash",
	"paypal",
	"venmo",
	"amazon",
	"google",
}

var verificationPhrases = []string{
	"verification code",
	"security code",
	"one-time",
	"otp",
	"code is",
	"your code",
	"use code",
}

// IsVerificationCode reports whether content looks like an OTP/verification
// message from a known provider. These are time-critical, so they skip the
// spam classifier entirely: a false-positive suppression here is
// unacceptable.
func IsVerificationCode(content string) bool {
	if googleCode.MatchString(content) {
		return true
	}

	lower := strings.ToLower(content)
	for _, provider := range verificationProviders {
		if strings.Contains(lower, provider) {
			return true
		}
	}
	for _, phrase := range verificationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
