// Piicleaner detects and cleans personally identifiable information in
// free text, CSV and JSON Lines tables, and git changes.
//
// Usage:
//
//	piicleaner detect "call 07700 900123"      # print PII spans as JSON
//	piicleaner clean --strategy redact < in.txt
//	piicleaner table clean --column note < people.csv
//	piicleaner scan staged --fail-on any        # gate a commit
//	piicleaner scan range origin/main..HEAD --per-commit
//	piicleaner serve --telemetry prometheus     # HTTP API on :8080
//
// Exit codes: 0 success, 1 PII found with --fail-on any, 2 usage or
// configuration error, 4 runtime error.
package main
