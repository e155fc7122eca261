// Package cleaner is the entry point for detecting and cleaning PII.
//
// A [Cleaner] is built once from a [Selection] of detector names and then
// used for any number of [Cleaner.Detect] and [Cleaner.Clean] calls, or their
// batch forms, which fan out across a bounded number of goroutines and return
// results in input order. Construction validates every name, so a typo fails
// at [New] rather than silently detecting nothing.
//
// [DetectPII], [DetectPIIWithCleaners] and [CleanPII] are shortcuts for
// one-off calls.
package cleaner
