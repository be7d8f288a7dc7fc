package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShell_RedirectThenResumeAfterLogin(t *testing.T) {
	e := newEnv(t)
	input := strings.Join([]string{
		"profile show",
		"auth login --email jane@example.com --password Passw0rd",
		"exit",
	}, "\n") + "\n"

	res := e.runInput(input, "shell")

	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "sign in required to profile show: run `emplo auth login`")
	assert.Contains(t, res.stdout, "Continuing with `profile show`")
	assert.Contains(t, res.stdout, "first_name")
	assert.Contains(t, res.stdout, "Jane")
	assert.Contains(t, res.stdout, "emplo (jane@example.com)> ")
	assert.Contains(t, res.stderr, "✓ Login successful: Welcome back!")
}

func TestShell_FailedLoginKeepsPending(t *testing.T) {
	e := newEnv(t)
	input := strings.Join([]string{
		"schedule",
		"auth login --email jane@example.com --password wrong",
		"auth login --email jane@example.com --password Passw0rd",
	}, "\n") + "\n"

	res := e.runInput(input, "shell")

	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, "✗ Login failed")
	assert.Equal(t, 1, strings.Count(res.stdout, "Continuing with `schedule`"))
	assert.Contains(t, res.stdout, "https://calendly.com/")
}

func TestShell_SharesOneSession(t *testing.T) {
	e := newEnv(t)
	e.login()
	input := "profile show\nauth logout\nprofile show\n"

	res := e.runInput(input, "shell")

	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Jane")
	assert.Contains(t, res.stderr, "✓ Logged out")
	assert.Contains(t, res.stdout, "sign in required to profile show")
}

func TestShell_UnknownCommandAndHelp(t *testing.T) {
	e := newEnv(t)

	res := e.runInput("prof\nhelp\n", "shell")

	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, `unknown command "prof"; did you mean: profile show, profile update`)
	assert.Contains(t, res.stdout, "auth login")
	assert.NotContains(t, res.stdout, "  shell\n")
}

func TestShell_HistoryOmitsPasswords(t *testing.T) {
	e := newEnv(t)

	res := e.runInput("version\nauth login --email jane@example.com --password Passw0rd\n", "shell")
	require.Equal(t, ExitOK, res.code, res.stderr)

	data, err := os.ReadFile(filepath.Join(e.dataDir, "history"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "version")
	assert.NotContains(t, string(data), "Passw0rd")
}

func TestCommandPaths(t *testing.T) {
	paths := commandPaths(shellCommands())

	assert.Contains(t, paths, "auth login")
	assert.Contains(t, paths, "profile update")
	assert.Contains(t, paths, "schedule")
	assert.Contains(t, paths, "version")
	assert.NotContains(t, paths, "shell")
}
