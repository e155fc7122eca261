// Package redact rewrites text around detected PII spans.
//
// Two strategies exist. [Redact] deletes every span so the surrounding text
// closes up with no residue. [Replace] puts a fixed placeholder, by default
// [Placeholder], where each span was; the placeholder says nothing about
// which detector fired or how long the original value was.
//
// [Rewrite] is a single linear pass over the input and never re-scans the
// output, so the placeholder must itself be invisible to every detector in
// use for cleaned text to stay clean when processed again.
package redact
