package command

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCommand(t *testing.T) {
	cmd := ConfigCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "config", cmd.Name)

	names := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		names[sub.Name] = true
	}
	for _, name := range []string{"show", "get", "set", "path", "validate"} {
		assert.True(t, names[name], "missing subcommand %s", name)
	}
}

func TestConfigSetGet(t *testing.T) {
	e := newEnv(t)

	res := e.run("config", "set", "timeout", "5s")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "timeout = 5s\n", res.stdout)

	info, err := os.Stat(e.config)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	res = e.run("config", "get", "timeout")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "5s\n", res.stdout)
}

func TestConfigGet_FlagOverridesFile(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, ExitOK, e.run("config", "set", "output", "yaml").code)

	res := e.run("-o", "json", "config", "get", "output")

	assert.Equal(t, "json\n", res.stdout)
}

func TestConfigShow(t *testing.T) {
	e := newEnv(t)

	res := e.run("config", "show")

	require.Equal(t, ExitOK, res.code, res.stderr)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "KEY"))
	assert.Contains(t, res.stdout, e.srv.URL)
	assert.Contains(t, res.stdout, "session.keep_token_on_transport_failure")
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"get without key", []string{"config", "get"}, "usage: emplo config get KEY"},
		{"get unknown key", []string{"config", "get", "nope"}, "unknown config key: nope"},
		{"set missing value", []string{"config", "set", "output"}, "usage: emplo config set KEY VALUE"},
		{"set unknown key", []string{"config", "set", "nope", "1"}, "unknown config key: nope"},
		{"set invalid value", []string{"config", "set", "output", "xml"}, "invalid value for output"},
		{"set bad duration", []string{"config", "set", "timeout", "soon"}, "invalid value for timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			res := e.run(tt.args...)

			assert.Equal(t, ExitFailure, res.code)
			assert.Contains(t, res.stderr, tt.wantErr)
		})
	}
}

func TestConfigSet_WorksWithBrokenConfig(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(e.config, []byte("output: xml\n"), 0600))

	res := e.run("config", "validate")
	assert.Equal(t, ExitFailure, res.code)

	res = e.run("config", "set", "output", "json")
	require.Equal(t, ExitOK, res.code, res.stderr)

	res = e.run("config", "validate")
	assert.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Configuration is valid")
}
