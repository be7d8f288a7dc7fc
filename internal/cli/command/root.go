package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/emplo-ai/emplo/internal/core/gate"
	"github.com/emplo-ai/emplo/internal/infra/buildinfo"
	"github.com/emplo-ai/emplo/internal/telemetry/logger"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitRedirect = 2
)

// App creates the CLI application.
func App() *cli.App {
	app := newApp(commands())
	app.Before = func(c *cli.Context) error {
		rt := newRuntime(ParseGlobalFlags(c), c.App.Reader, c.App.Writer, c.App.ErrWriter)
		c.App.Metadata[runtimeKey] = rt
		c.Context = logger.WithLogger(c.Context, rt.Logger())
		return nil
	}
	app.After = func(c *cli.Context) error {
		if rt := runtimeFrom(c); rt != nil {
			return rt.Close()
		}
		return nil
	}
	return app
}

// newApp builds the app skeleton shared by App and the shell.
func newApp(cmds []*cli.Command) *cli.App {
	return &cli.App{
		Name:     "emplo",
		Usage:    "Emplo recruiting platform client",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Commands: cmds,
		Metadata: map[string]any{},
		// Exit codes are mapped by the caller (see ExitCode) so that the app
		// can run inside the shell and in tests without terminating.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func commands() []*cli.Command {
	return append(sessionCommands(), ConfigCommand(), VersionCommand(), ShellCommand())
}

// sessionCommands are the commands available inside the shell.
func sessionCommands() []*cli.Command {
	return []*cli.Command{
		AuthCommand(),
		ProfileCommand(),
		ScheduleCommand(),
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "api-base-url",
			Usage: "Identity service base URL (env EMPLO_API_BASE_URL, API_BASE_URL)",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file path (default ~/.emplo/cli.yaml)",
			EnvVars: []string{"EMPLO_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Directory holding the credential store (env EMPLO_DATA_DIR)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Identity service request timeout",
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM bundle of extra CA certificates",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write Prometheus metrics to this file on exit",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Keep credentials in memory only",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable coloured output",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable verbose output",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	ConfigPath string
	Ephemeral  bool
	NoColor    bool
	Verbose    bool

	// overrides maps config keys to values of flags set on the command line.
	overrides map[string]any
}

// flagKeys maps flags to the config keys they override.
var flagKeys = map[string]string{
	"api-base-url": "api_base_url",
	"data-dir":     "data_dir",
	"output":       "output",
	"timeout":      "timeout",
	"ca-file":      "ca_file",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"metrics-file": "metrics_file",
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	f := &GlobalFlags{
		ConfigPath: c.String("config"),
		Ephemeral:  c.Bool("ephemeral"),
		NoColor:    c.Bool("no-color"),
		Verbose:    c.Bool("verbose"),
		overrides:  make(map[string]any),
	}
	for flag, key := range flagKeys {
		if !c.IsSet(flag) {
			continue
		}
		if flag == "timeout" {
			f.overrides[key] = c.Duration(flag).String()
			continue
		}
		f.overrides[key] = c.String(flag)
	}
	return f
}

// Overrides returns the config overrides from command-line flags.
func (f *GlobalFlags) Overrides() map[string]any {
	return f.overrides
}

// RedirectError reports that a protected command needs a signed-in session.
type RedirectError struct {
	Decision gate.Decision
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("sign in required to %s: run `emplo %s`", e.Decision.From, e.Decision.To)
}

// ExitCode implements cli.ExitCoder.
func (e *RedirectError) ExitCode() int {
	return ExitRedirect
}

// ExitCode prints err to w and returns the process exit code for it.
func ExitCode(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}
	code := ExitFailure
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		code = coder.ExitCode()
	}
	if msg := err.Error(); msg != "" {
		fmt.Fprintf(w, "error: %s\n", msg)
	}
	return code
}

// failed is returned after a failure the notifier already reported.
func failed() error {
	return cli.Exit("", ExitFailure)
}

// failedOrCancelled is failed unless the command was interrupted, in which
// case nothing was reported and the context error is returned instead.
func failedOrCancelled(c *cli.Context) error {
	if err := c.Context.Err(); err != nil {
		return err
	}
	return failed()
}
