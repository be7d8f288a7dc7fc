// Package main provides the entry point for emplo.
//
// emplo is the command-line client for the Emplo recruiting platform:
//
//   - Account sign-up, sign-in and sign-out
//   - Profile display and editing
//   - Interview scheduling link
//   - Configuration management
//
// Usage:
//
//	emplo auth login --email jane@example.com
//	emplo profile update --first-name Janet
//	emplo shell
//
// Exit status is 0 on success, 1 on failure and 2 when a command needs a
// signed-in user.
package main
