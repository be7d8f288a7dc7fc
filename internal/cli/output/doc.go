// Package output renders command results and session toasts.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: field/value tables for structs and maps
//   - json.go, yaml.go: machine-readable output
//   - notifier.go: coloured toasts on the terminal
//   - spinner.go: the placeholder shown while the session is loading
//
// Results go to stdout; toasts and the spinner go to stderr so that
// `emplo -o json profile show | jq` stays parseable.
package output
