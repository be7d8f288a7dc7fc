// Package logger provides structured logging for the Emplo client.
//
//   - logger.go: slog-based Logger, level control and the package default
//   - context.go: context-aware logging with request IDs
//   - redact.go: credential redaction
//
// The CLI logs text to stderr at warn by default; --verbose lowers the
// level to debug and --log-format json switches to JSON lines.
package logger
