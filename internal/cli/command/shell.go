package command

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/emplo-ai/emplo/internal/cli/repl"
	"github.com/emplo-ai/emplo/internal/core/domain"
	"github.com/emplo-ai/emplo/internal/core/session"
	"github.com/emplo-ai/emplo/internal/telemetry/logger"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:    "shell",
		Aliases: []string{"repl"},
		Usage:   "Start an interactive session",
		Description: "All commands in the shell share one session. It is initialized in the\n" +
			"background; a command that needs a signed-in user and is turned away\n" +
			"runs again after a successful `auth login`.",
		Action: runShell,
	}
}

// shellCommands are the commands the shell dispatches to.
func shellCommands() []*cli.Command {
	return append(sessionCommands(), ConfigCommand(), VersionCommand())
}

// shell runs command lines against one shared runtime.
type shell struct {
	rt    *Runtime
	store *session.Store

	// pending is the command turned away by the gate, re-run after login.
	pending []string
}

func runShell(c *cli.Context) error {
	rt := runtimeFrom(c)
	rt.watchCA = true
	store, err := rt.Store()
	if err != nil {
		return err
	}
	cfg, _ := rt.Config()

	initDone := make(chan struct{})
	go func() {
		defer close(initDone)
		store.Initialize(c.Context)
	}()
	defer func() { <-initDone }()

	history := repl.NewHistory(filepath.Join(cfg.DataDir, "history"))
	if err := history.Load(); err != nil {
		rt.Logger().Warn("failed to load shell history", "error", err)
	}
	defer func() {
		if err := history.Save(); err != nil {
			rt.Logger().Warn("failed to save shell history", "error", err)
		}
	}()

	sh := &shell{rt: rt, store: store}
	r := repl.New(sh.exec,
		repl.WithInput(rt.stdin),
		repl.WithOutput(rt.stdout),
		repl.WithPrompt(sh.prompt),
		repl.WithCompleter(repl.NewCompleter(commandPaths(shellCommands()))),
		repl.WithHistory(history),
	)

	fmt.Fprintln(rt.stdout, "emplo shell. Type 'help' for commands, 'exit' to quit.")
	if err := r.Run(c.Context); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// exec runs one command line. Every line gets its own correlation ID.
func (sh *shell) exec(ctx context.Context, args []string) error {
	ctx = logger.WithLogger(ctx, sh.rt.Logger())
	ctx = logger.WithRequestID(ctx, ulid.Make().String())

	err := sh.newApp().RunContext(ctx, append([]string{"emplo"}, args...))

	var redirect *RedirectError
	if errors.As(err, &redirect) {
		sh.pending = args
		logger.L(ctx).Debug("remembering command for after login", "command", strings.Join(args, " "))
		return err
	}

	if err == nil && isLogin(args) && sh.pending != nil && sh.store.State().IsAuthenticated() {
		pending := sh.pending
		sh.pending = nil
		fmt.Fprintf(sh.rt.stdout, "Continuing with `%s`\n", strings.Join(pending, " "))
		return sh.exec(ctx, pending)
	}

	if err != nil && err.Error() == "" {
		// Reported by the notifier.
		return nil
	}
	return err
}

// newApp builds a fresh app for one line so no flag state carries over.
func (sh *shell) newApp() *cli.App {
	app := newApp(shellCommands())
	app.Metadata[runtimeKey] = sh.rt
	app.Reader = sh.rt.stdin
	app.Writer = sh.rt.stdout
	app.ErrWriter = sh.rt.stderr
	app.HideVersion = true
	return app
}

func (sh *shell) prompt() string {
	st := sh.store.State()
	switch st.Phase {
	case domain.PhaseAuthenticated:
		return fmt.Sprintf("emplo (%s)> ", st.Identity.Email)
	case domain.PhaseAnonymous:
		return "emplo> "
	default:
		return fmt.Sprintf("emplo (%s)> ", st.Phase)
	}
}

func isLogin(args []string) bool {
	return len(args) >= 2 && args[0] == "auth" && (args[1] == "login" || args[1] == "signin")
}

// commandPaths lists "cmd" and "cmd sub" for every command.
func commandPaths(cmds []*cli.Command) []string {
	var paths []string
	for _, cmd := range cmds {
		if len(cmd.Subcommands) == 0 {
			paths = append(paths, cmd.Name)
			continue
		}
		for _, sub := range cmd.Subcommands {
			paths = append(paths, cmd.Name+" "+sub.Name)
		}
	}
	return paths
}
