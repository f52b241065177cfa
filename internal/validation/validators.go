// Package validation holds the stateless predicate checks applied at
// registration and profile-update call sites. Validators never fail; they
// return booleans or a (valid, reason) pair.
package validation

import (
	"regexp"
	"strings"
	"unicode"
)

// passwordSymbols is the fixed punctuation set accepted as the "special
// character" class.
const passwordSymbols = "!@#$%^&*()_+-=[]{}|;:'\",.<>/?`~"

// commonPasswords is a small fixed denylist matched case-insensitively
// against the whole password.
var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"password123": {},
	"12345678":   {},
	"123456789":  {},
	"qwerty123":  {},
	"letmein1":   {},
	"welcome1":   {},
	"iloveyou":   {},
	"sunshine":   {},
}

// emailPattern is a deliberately simple ASCII shape check, not an RFC 5322
// validator.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// phonePattern accepts a 10-digit subscriber number with an optional +91
// country prefix. Single regional format.
var phonePattern = regexp.MustCompile(`^(\+91)?[0-9]{10}$`)

// ValidatePassword checks password strength and returns the first failing
// reason. Violations are not aggregated.
func ValidatePassword(password string) (bool, string) {
	if _, common := commonPasswords[strings.ToLower(password)]; common {
		return false, "password is too common"
	}
	if len(password) < 8 {
		return false, "password must be at least 8 characters long"
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return false, "password must contain an uppercase letter"
	case !hasLower:
		return false, "password must contain a lowercase letter"
	case !hasDigit:
		return false, "password must contain a digit"
	case !hasSymbol:
		return false, "password must contain a special character"
	}
	return true, ""
}

// ValidateEmail reports whether s looks like local@domain.tld.
func ValidateEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidatePhone reports whether s is an acceptable phone number. The field is
// optional: empty is valid. Spaces and hyphens are stripped before matching.
func ValidatePhone(s string) bool {
	if s == "" {
		return true
	}
	stripped := strings.NewReplacer(" ", "", "-", "").Replace(s)
	return phonePattern.MatchString(stripped)
}
