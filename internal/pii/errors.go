package pii

import "fmt"

// UnknownDetectorError is returned when a requested detector name is not in
// the registry.
type UnknownDetectorError struct {
	Name string
}

func (e *UnknownDetectorError) Error() string {
	return fmt.Sprintf("unknown cleaner %q", e.Name)
}

// InvalidConfigurationError reports a configuration value of the wrong shape:
// a cleaner selection that is neither "all", a name nor a list of names, an
// unknown strategy, or an unusable placeholder.
type InvalidConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// InvalidInputError reports a batch element that is not text.
type InvalidInputError struct {
	Index int
	Value any
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("element %d: expected string, got %T", e.Index, e.Value)
}
