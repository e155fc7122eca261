package pii

import (
	"fmt"
	"regexp"
)

// AcceptFunc inspects a candidate match text[start:end] in context and
// reports whether it should be kept.
type AcceptFunc func(text string, start, end int) bool

// Definition describes a detector before compilation.
type Definition struct {
	Name    string
	Pattern string
	// Group selects the capture group reported as the span. Zero reports the
	// whole match.
	Group  int
	Accept AcceptFunc
	// FoldPattern is the rule used in ignore-case mode. Empty folds the
	// whole Pattern.
	FoldPattern string
}

// Detector is a single compiled rule. It is immutable and safe for
// concurrent use.
type Detector struct {
	name   string
	rule   *regexp.Regexp
	fold   *regexp.Regexp
	group  int
	accept AcceptFunc
}

func compile(def Definition) (*Detector, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("detector with pattern %q has no name", def.Pattern)
	}
	rule, err := regexp.Compile(def.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", def.Name, err)
	}
	foldPattern := def.FoldPattern
	if foldPattern == "" {
		foldPattern = "(?i)" + def.Pattern
	}
	fold, err := regexp.Compile(foldPattern)
	if err != nil {
		return nil, fmt.Errorf("compiling %s (ignore case): %w", def.Name, err)
	}
	if def.Group < 0 || def.Group > rule.NumSubexp() {
		return nil, fmt.Errorf("%s: group %d out of range (pattern has %d)", def.Name, def.Group, rule.NumSubexp())
	}
	if fold.NumSubexp() != rule.NumSubexp() {
		return nil, fmt.Errorf("%s: ignore-case pattern has %d groups, want %d", def.Name, fold.NumSubexp(), rule.NumSubexp())
	}
	return &Detector{
		name:   def.Name,
		rule:   rule,
		fold:   fold,
		group:  def.Group,
		accept: def.Accept,
	}, nil
}

// Name returns the detector's registry name.
func (d *Detector) Name() string {
	return d.name
}

// Scan returns every non-overlapping match of the rule, left to right.
func (d *Detector) Scan(text string) []Span {
	return d.scan(d.rule, text)
}

// ScanFold is Scan using the ignore-case variant of the rule.
func (d *Detector) ScanFold(text string) []Span {
	return d.scan(d.fold, text)
}

func (d *Detector) scan(re *regexp.Regexp, text string) []Span {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	spans := make([]Span, 0, len(locs))
	for _, loc := range locs {
		start, end := loc[2*d.group], loc[2*d.group+1]
		if start < 0 || start >= end {
			continue
		}
		if d.accept != nil && !d.accept(text, start, end) {
			continue
		}
		spans = append(spans, Span{
			Start:    start,
			End:      end,
			Text:     text[start:end],
			Detector: d.name,
		})
	}
	return spans
}
