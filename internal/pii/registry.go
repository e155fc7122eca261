package pii

import "fmt"

// All selects every registered detector.
const All = "all"

// Registry is an immutable catalogue of detectors keyed by name.
type Registry struct {
	order  []*Detector
	byName map[string]*Detector
}

// NewRegistry compiles defs into a registry. The order of defs becomes the
// canonical order reported by Names. Names must be unique and may not be
// "all".
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{
		order:  make([]*Detector, 0, len(defs)),
		byName: make(map[string]*Detector, len(defs)),
	}
	for _, def := range defs {
		if def.Name == All {
			return nil, fmt.Errorf("detector name %q is reserved", All)
		}
		if _, dup := r.byName[def.Name]; dup {
			return nil, fmt.Errorf("duplicate detector %q", def.Name)
		}
		d, err := compile(def)
		if err != nil {
			return nil, err
		}
		r.order = append(r.order, d)
		r.byName[d.name] = d
	}
	return r, nil
}

func mustRegistry(defs []Definition) *Registry {
	r, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultRegistry = mustRegistry(builtin)

// Default returns the process-wide registry of built-in detectors.
func Default() *Registry {
	return defaultRegistry
}

// Names returns detector names in canonical order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, d := range r.order {
		names[i] = d.name
	}
	return names
}

// Lookup returns the detector registered under name.
func (r *Registry) Lookup(name string) (*Detector, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Resolve maps names to detectors. A single "all" returns every detector in
// canonical order; otherwise detectors come back in the requested order with
// repeated names collapsed to their first occurrence. The first name not in
// the registry fails with *UnknownDetectorError.
func (r *Registry) Resolve(names []string) ([]*Detector, error) {
	if len(names) == 0 {
		return nil, &InvalidConfigurationError{Field: "cleaners", Value: names, Reason: "at least one cleaner is required"}
	}
	if len(names) == 1 && names[0] == All {
		out := make([]*Detector, len(r.order))
		copy(out, r.order)
		return out, nil
	}
	out := make([]*Detector, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		d, ok := r.byName[name]
		if !ok {
			return nil, &UnknownDetectorError{Name: name}
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, d)
	}
	return out, nil
}
