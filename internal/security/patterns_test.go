package security

import (
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "vocalmind/pkg/domain-errors"
)

type PatternsSuite struct {
	suite.Suite
}

func TestPatternsSuite(t *testing.T) {
	suite.Run(t, new(PatternsSuite))
}

func (s *PatternsSuite) TestIsMalicious() {
	malicious := []struct {
		name  string
		input string
	}{
		{"operator injection where", `{"$where": "this.password == 'x'"}`},
		{"operator injection ne", `{"$ne": null}`},
		{"operator injection regex", `admin$regex`},
		{"operator injection gt", "$gt"},
		{"operator injection gte", "$gte"},
		{"operator injection or", `$or`},
		{"brace-dollar opening", `{ $foo: 1}`},
		{"script tag", `<script>alert(1)</script>`},
		{"script tag uppercase", `<SCRIPT>alert(1)</SCRIPT>`},
		{"javascript url", `javascript:alert(1)`},
		{"event handler", `onerror=alert(1)`},
		{"event handler spaced", `onload = steal()`},
		{"iframe tag", `<iframe src="evil">`},
		{"object tag", `<object data="evil">`},
		{"embed tag", `<embed src="evil">`},
	}
	for _, tc := range malicious {
		s.Run(tc.name, func() {
			s.True(IsMalicious(tc.input), "input %q should be flagged", tc.input)
		})
	}

	clean := []struct {
		name  string
		input string
	}{
		{"plain name", "Asha Sharma"},
		{"email", "asha@example.com"},
		{"price with dollar", "costs $5 at most"},
		{"empty string", ""},
		{"html-free punctuation", "hello, world! (really)"},
		{"word containing on", "ongoing session"},
	}
	for _, tc := range clean {
		s.Run(tc.name, func() {
			s.False(IsMalicious(tc.input), "input %q should pass", tc.input)
		})
	}
}

func (s *PatternsSuite) TestSanitize() {
	s.Run("clean input passes through unchanged", func() {
		out, err := Sanitize("I have been feeling anxious lately.")
		s.Require().NoError(err)
		s.Equal("I have been feeling anxious lately.", out)
	})

	s.Run("sanitize is idempotent on clean input", func() {
		once, err := Sanitize("regular text")
		s.Require().NoError(err)
		twice, err := Sanitize(once)
		s.Require().NoError(err)
		s.Equal(once, twice)
	})

	s.Run("malicious input is rejected with a generic message", func() {
		_, err := Sanitize(`<script>alert(1)</script>`)
		s.Require().Error(err)
		s.Equal(dErrors.CodeInvalidInput, dErrors.CodeOf(err))
		s.NotContains(err.Error(), "script", "matched pattern must not leak")
	})
}

func (s *PatternsSuite) TestSanitizeFields() {
	s.Run("all clean fields pass", func() {
		err := SanitizeFields(map[string]string{
			"name":  "Asha",
			"email": "asha@example.com",
		})
		s.NoError(err)
	})

	s.Run("failing field is named in the error", func() {
		err := SanitizeFields(map[string]string{
			"name": "Asha",
			"bio":  `javascript:alert(1)`,
		})
		s.Require().Error(err)
		s.Equal(dErrors.CodeInvalidInput, dErrors.CodeOf(err))
		s.Contains(err.Error(), "bio")
	})
}
