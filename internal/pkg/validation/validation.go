package validation

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail accepts local@domain.tld with no whitespace.
func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// NormalizeEmail trims and lower-cases an address for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidName accepts 1..100 characters after trimming.
func IsValidName(name string) bool {
	n := len(strings.TrimSpace(name))
	return n > 0 && n <= 100
}
