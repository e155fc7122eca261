package pii

import "sort"

// Result holds the raw spans one detector found in a text.
type Result struct {
	Detector string
	Spans    []Span
}

// Merge flattens per-detector results into one list sorted by Start with no
// two spans overlapping.
//
// The policy is greedy longest-match-first. Spans are ordered by start
// ascending, then length descending, then by the position of their detector
// in results; a sweep keeps a span only if it starts at or after the end of
// the last kept span. At a shared start the longer span wins and equal
// lengths go to the detector requested first. A consequence for rule
// authors: a broad rule suppresses any narrower match it encloses or
// overlaps from the left, so an address rule that swallows the trailing
// postcode hides the postcode detection.
func Merge(results []Result) []Span {
	type ranked struct {
		span Span
		rank int
	}

	n := 0
	for _, r := range results {
		n += len(r.Spans)
	}
	if n == 0 {
		return nil
	}

	all := make([]ranked, 0, n)
	for i, r := range results {
		for _, s := range r.Spans {
			all = append(all, ranked{span: s, rank: i})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.span.Start != b.span.Start {
			return a.span.Start < b.span.Start
		}
		if a.span.Len() != b.span.Len() {
			return a.span.Len() > b.span.Len()
		}
		return a.rank < b.rank
	})

	merged := make([]Span, 0, len(all))
	lastEnd := 0
	for _, c := range all {
		if c.span.Start < lastEnd {
			continue
		}
		merged = append(merged, c.span)
		lastEnd = c.span.End
	}
	return merged
}
