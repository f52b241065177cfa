// Package security holds the request-level defenses: the injection/XSS
// pattern matcher and the middleware that wraps every inbound request with
// rate limiting and response hardening headers.
package security

import (
	"regexp"

	dErrors "vocalmind/pkg/domain-errors"
)

// Denylist patterns. A denylist is inherently incomplete against encoding and
// obfuscation; the data-access layer must still use parameterized queries and
// output encoding. These patterns gate obvious operator and markup injection
// at the edge.
var nosqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$where`),
	regexp.MustCompile(`(?i)\$regex`),
	regexp.MustCompile(`(?i)\$gte?`),
	regexp.MustCompile(`(?i)\$lte?`),
	regexp.MustCompile(`(?i)\$ne`),
	regexp.MustCompile(`(?i)\$nin`),
	regexp.MustCompile(`(?i)\$in`),
	regexp.MustCompile(`(?i)\$or`),
	regexp.MustCompile(`(?i)\$and`),
	regexp.MustCompile(`\{\s*\$`),
}

var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)<object`),
	regexp.MustCompile(`(?i)<embed`),
}

// IsMalicious reports whether value matches any denylist pattern. Ordering
// between the two sets does not affect the outcome.
func IsMalicious(value string) bool {
	for _, p := range nosqlPatterns {
		if p.MatchString(value) {
			return true
		}
	}
	for _, p := range xssPatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// Sanitize passes clean input through unchanged and rejects input matching
// the denylist. The error is deliberately generic: the matched pattern is not
// disclosed to the caller.
func Sanitize(value string) (string, error) {
	if IsMalicious(value) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "potentially malicious input")
	}
	return value, nil
}

// SanitizeFields checks each named field, failing on the first match so the
// caller can report which field was rejected.
func SanitizeFields(fields map[string]string) error {
	for name, value := range fields {
		if _, err := Sanitize(value); err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "potentially malicious input in field "+name)
		}
	}
	return nil
}
