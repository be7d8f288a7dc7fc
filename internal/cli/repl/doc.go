// Package repl provides the line loop behind `emplo shell`.
//
//   - repl.go: read, split and dispatch lines to an Executor
//   - completer.go: command-path suggestions for unknown input
//   - history.go: history persisted in the data directory
//
// The REPL knows nothing about sessions; the shell command supplies an
// Executor that runs each line against one long-lived session store.
package repl
