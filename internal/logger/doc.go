// Package logger builds the zap loggers used by the long-running service.
// CLI commands report to stderr directly and do not log.
package logger
