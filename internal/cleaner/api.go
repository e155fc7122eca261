package cleaner

import (
	"sync"

	"github.com/dshills/piicleaner/internal/pii"
	"github.com/dshills/piicleaner/internal/redact"
)

var defaultCleaner = sync.OnceValue(func() *Cleaner {
	c, err := New(All())
	if err != nil {
		panic(err)
	}
	return c
})

// AvailableCleaners lists the built-in detector names in canonical order.
func AvailableCleaners() []string {
	return pii.Default().Names()
}

// DetectPII runs every detector over text.
func DetectPII(text string) []pii.Span {
	return defaultCleaner().Detect(text)
}

// DetectPIIWithCleaners runs only the named detectors over text.
func DetectPIIWithCleaners(text string, names []string) ([]pii.Span, error) {
	c, err := New(Names(names...))
	if err != nil {
		return nil, err
	}
	return c.Detect(text), nil
}

// CleanPII cleans text with every detector using the strategy named
// "redact" or "replace".
func CleanPII(text, strategy string) (string, error) {
	s, err := redact.ParseStrategy(strategy)
	if err != nil {
		return "", err
	}
	return defaultCleaner().Clean(text, s), nil
}
