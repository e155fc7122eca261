// Package pii holds the detector catalogue and the span merger.
//
// A [Detector] is a named RE2 rule plus an optional capture group and accept
// guard. The [Registry] owns the compiled detectors and is read-only once
// built; [Default] returns the process-wide registry compiled at package
// initialisation, so detectors can be shared by any number of goroutines
// without locking.
//
// All offsets in a [Span] are byte offsets into the UTF-8 input string, the
// same unit Go uses for slicing. [Merge] combines the raw spans of several
// detectors into one sorted, non-overlapping list using a longest-match-first
// sweep; see its documentation for the tie-break rules.
package pii
