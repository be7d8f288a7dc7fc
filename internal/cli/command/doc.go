// Package command provides the CLI command definitions for emplo.
//
// Commands are built with urfave/cli/v2:
//
//   - root.go: application, global flags, exit codes
//   - runtime.go: per-invocation wiring of config, logging, metrics and the session
//   - protect.go: route gate in front of commands that need a signed-in user
//   - auth.go: signup, login, logout, status
//   - profile.go: profile show and update
//   - schedule.go: interview scheduling link
//   - config.go: configuration file management
//   - shell.go: interactive shell sharing one session
//
// A command that is turned away by the gate fails with *RedirectError,
// which maps to exit status 2.
package command
