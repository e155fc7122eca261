package cleaner

import (
	"fmt"
	"strings"

	"github.com/dshills/piicleaner/internal/pii"
)

// Selection is the set of detectors a Cleaner runs: either every detector
// or an explicit, ordered list of names.
type Selection struct {
	names []string
}

// All selects every registered detector in canonical order.
func All() Selection {
	return Selection{names: []string{pii.All}}
}

// Names selects the given detectors in the given order.
func Names(names ...string) Selection {
	return Selection{names: append([]string(nil), names...)}
}

// IsAll reports whether the selection is the "all" sentinel.
func (s Selection) IsAll() bool {
	return len(s.names) == 1 && s.names[0] == pii.All
}

// List returns the selected names, or ["all"].
func (s Selection) List() []string {
	return append([]string(nil), s.names...)
}

func (s Selection) String() string {
	return strings.Join(s.names, ",")
}

// ParseSelection converts a loosely typed configuration value into a
// Selection. Accepted shapes are "all", a single detector name, a []string,
// or a []any whose elements are all strings. Names are not checked against
// the registry here; New does that.
func ParseSelection(v any) (Selection, error) {
	switch val := v.(type) {
	case Selection:
		return val, validateNames(val.names, v)
	case string:
		name := strings.TrimSpace(val)
		if name == "" {
			return Selection{}, invalidSelection(v, "empty cleaner name")
		}
		return Selection{names: []string{name}}, nil
	case []string:
		return Selection{names: append([]string(nil), val...)}, validateNames(val, v)
	case []any:
		names := make([]string, len(val))
		for i, e := range val {
			s, ok := e.(string)
			if !ok {
				return Selection{}, invalidSelection(v, fmt.Sprintf("element %d is %T, not a string", i, e))
			}
			names[i] = s
		}
		return Selection{names: names}, validateNames(names, v)
	case nil:
		return Selection{}, invalidSelection(v, "no cleaners given")
	default:
		return Selection{}, invalidSelection(v, fmt.Sprintf("expected \"all\", a name or a list of names, got %T", v))
	}
}

func validateNames(names []string, raw any) error {
	if len(names) == 0 {
		return invalidSelection(raw, "at least one cleaner is required")
	}
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return invalidSelection(raw, "empty cleaner name")
		}
		if n == pii.All && len(names) > 1 {
			return invalidSelection(raw, `"all" cannot be combined with other names`)
		}
	}
	return nil
}

func invalidSelection(v any, reason string) error {
	return &pii.InvalidConfigurationError{Field: "cleaners", Value: v, Reason: reason}
}
