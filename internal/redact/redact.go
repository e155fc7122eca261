package redact

import (
	"fmt"
	"strings"

	"github.com/dshills/piicleaner/internal/pii"
)

// Placeholder is the default text substituted for each span under Replace.
const Placeholder = "[REDACTED]"

// Strategy selects how a detected span is rewritten.
type Strategy int

const (
	// Redact deletes the span.
	Redact Strategy = iota
	// Replace substitutes the placeholder for the span.
	Replace
)

func (s Strategy) String() string {
	switch s {
	case Redact:
		return "redact"
	case Replace:
		return "replace"
	default:
		return "unknown"
	}
}

// Valid reports whether s is Redact or Replace. ParseStrategy only returns
// valid strategies.
func (s Strategy) Valid() bool {
	return s == Redact || s == Replace
}

// ParseStrategy maps "redact" or "replace" (any case) to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "redact":
		return Redact, nil
	case "replace":
		return Replace, nil
	}
	return 0, &pii.InvalidConfigurationError{
		Field:  "strategy",
		Value:  name,
		Reason: `must be "redact" or "replace"`,
	}
}

// Rewrite copies text, dropping each span (Redact) or swapping it for
// placeholder (Replace), in one pass. spans must be sorted and
// non-overlapping as produced by pii.Merge; a span that starts before the
// previous one ends or falls outside text is ignored. Rewrite panics if s is
// not a valid Strategy.
func Rewrite(text string, spans []pii.Span, s Strategy, placeholder string) string {
	if !s.Valid() {
		panic(fmt.Sprintf("redact: unknown strategy %d", int(s)))
	}
	if len(spans) == 0 {
		return text
	}

	var b strings.Builder
	size := len(text)
	if s == Replace {
		size += len(spans) * len(placeholder)
	}
	b.Grow(size)

	pos := 0
	for _, sp := range spans {
		if sp.Start < pos || sp.End > len(text) || sp.Start >= sp.End {
			continue
		}
		b.WriteString(text[pos:sp.Start])
		if s == Replace {
			b.WriteString(placeholder)
		}
		pos = sp.End
	}
	b.WriteString(text[pos:])
	return b.String()
}
