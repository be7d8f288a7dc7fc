// Package tlsroots manages the trusted roots used to reach the identity
// service.
//
//   - roots.go: system pool plus a custom CA bundle
//   - watcher.go: reloads the CA bundle when the file changes
//
// The interactive shell keeps one transport open for a long time; the
// watcher lets a rotated CA bundle take effect without restarting it.
package tlsroots
