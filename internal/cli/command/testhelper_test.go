package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emplo-ai/emplo/internal/identity/identitytest"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// env is an isolated CLI environment: its own config file, data directory
// and fake identity service.
type env struct {
	t       *testing.T
	srv     *identitytest.Server
	dir     string
	config  string
	dataDir string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	for _, key := range []string{"API_BASE_URL", "EMPLO_API_BASE_URL", "EMPLO_PASSWORD", "EMPLO_OUTPUT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	srv := identitytest.NewServer(identitytest.WithUserObjectInLogin())
	t.Cleanup(srv.Close)
	srv.AddUser(identitytest.User{
		Email:     "jane@example.com",
		Password:  "Passw0rd",
		FirstName: "Jane",
		LastName:  "Doe",
		Role:      "candidate",
	})

	dir := t.TempDir()
	return &env{
		t:       t,
		srv:     srv,
		dir:     dir,
		config:  filepath.Join(dir, "cli.yaml"),
		dataDir: filepath.Join(dir, "data"),
	}
}

// result is the outcome of one CLI invocation.
type result struct {
	code   int
	stdout string
	stderr string
}

// run executes the CLI with args against the environment, the way main does.
func (e *env) run(args ...string) result {
	return e.runInput("", args...)
}

func (e *env) runInput(input string, args ...string) result {
	e.t.Helper()
	return e.runContext(context.Background(), input, args...)
}

func (e *env) runContext(ctx context.Context, input string, args ...string) result {
	e.t.Helper()
	var stdout, stderr syncBuffer

	app := App()
	app.Reader = strings.NewReader(input)
	app.Writer = &stdout
	app.ErrWriter = &stderr

	full := []string{"emplo",
		"--config", e.config,
		"--data-dir", e.dataDir,
		"--api-base-url", e.srv.URL,
		"--no-color",
	}
	full = append(full, args...)

	err := app.RunContext(ctx, full)
	code := ExitCode(&stderr, err)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// login signs jane in and fails the test otherwise.
func (e *env) login() {
	e.t.Helper()
	res := e.run("auth", "login", "--email", "jane@example.com", "--password", "Passw0rd")
	require.Equal(e.t, ExitOK, res.code, "login failed: %s", res.stderr)
}
