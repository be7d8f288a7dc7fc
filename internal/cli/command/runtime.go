package command

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/emplo-ai/emplo/internal/cli/config"
	"github.com/emplo-ai/emplo/internal/cli/output"
	"github.com/emplo-ai/emplo/internal/core/gate"
	"github.com/emplo-ai/emplo/internal/core/session"
	"github.com/emplo-ai/emplo/internal/credstore"
	"github.com/emplo-ai/emplo/internal/identity"
	"github.com/emplo-ai/emplo/internal/infra/shutdown"
	"github.com/emplo-ai/emplo/internal/infra/tlsroots"
	"github.com/emplo-ai/emplo/internal/telemetry/logger"
	"github.com/emplo-ai/emplo/internal/telemetry/metric"
)

const runtimeKey = "runtime"

// Runtime holds everything a command needs. Configuration is loaded when
// the runtime is created; the credential store and session store are only
// opened by commands that use them, so `config set` still works with a
// broken configuration and `version` never locks the credential database.
type Runtime struct {
	flags  *GlobalFlags
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg      *config.CLIConfig
	cfgErr   error
	log      logger.Logger
	metrics  *metric.Registry
	notifier session.Notifier
	shutdown *shutdown.Handler

	sessOnce sync.Once
	sessErr  error
	creds    credstore.Store
	client   *identity.Client
	store    *session.Store
	gate     *gate.Gate
	watcher  *tlsroots.Watcher
	watchCA  bool
}

// newRuntime loads the configuration and sets up logging, metrics and the
// notifier. A configuration error is kept and reported by Config.
func newRuntime(flags *GlobalFlags, stdin io.Reader, stdout, stderr io.Writer) *Runtime {
	rt := &Runtime{
		flags:    flags,
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		metrics:  metric.NewRegistry(),
		notifier: output.NewTerminalNotifier(stderr, output.UseColors() && !flags.NoColor),
		shutdown: shutdown.NewHandler(5 * time.Second),
	}

	rt.cfg, rt.cfgErr = config.Load(rt.configPath(), flags.Overrides())

	logCfg := logger.Config{Level: config.DefaultLogLevel, Format: config.DefaultLogFormat, Output: stderr}
	if rt.cfg != nil {
		logCfg.Level = rt.cfg.Log.Level
		logCfg.Format = rt.cfg.Log.Format
	}
	if flags.Verbose {
		logCfg.Level = "debug"
	}
	rt.log, _ = logger.New(logCfg)
	logger.SetDefault(rt.log)

	if rt.cfg != nil && rt.cfg.MetricsFile != "" {
		path := rt.cfg.MetricsFile
		rt.shutdown.OnShutdown(func(context.Context) error {
			return rt.metrics.WriteTextfile(path)
		})
	}
	return rt
}

// Config returns the loaded configuration or the load error.
func (rt *Runtime) Config() (*config.CLIConfig, error) {
	if rt.cfgErr != nil {
		return nil, cli.Exit(rt.cfgErr.Error(), ExitFailure)
	}
	return rt.cfg, nil
}

// configPath returns the config file in use.
func (rt *Runtime) configPath() string {
	if rt.flags.ConfigPath != "" {
		return config.ExpandHome(rt.flags.ConfigPath)
	}
	return config.DefaultConfigPath()
}

// Logger returns the application logger.
func (rt *Runtime) Logger() logger.Logger {
	return rt.log
}

// Formatter returns the formatter for the configured output format.
func (rt *Runtime) Formatter() output.Formatter {
	format := output.FormatTable
	if rt.cfg != nil {
		format, _ = output.ParseFormat(rt.cfg.Output)
	}
	return output.NewFormatter(format)
}

// Print formats data to stdout.
func (rt *Runtime) Print(data any) error {
	return rt.Formatter().Format(rt.stdout, data)
}

// Store opens the credential store, the identity client and the session
// store on first use.
func (rt *Runtime) Store() (*session.Store, error) {
	rt.sessOnce.Do(func() {
		rt.sessErr = rt.openSession()
	})
	if rt.sessErr != nil {
		return nil, cli.Exit(rt.sessErr.Error(), ExitFailure)
	}
	return rt.store, nil
}

// Gate returns the route gate.
func (rt *Runtime) Gate() *gate.Gate {
	if rt.gate == nil {
		rt.gate = gate.New(gate.DefaultEntry)
	}
	return rt.gate
}

func (rt *Runtime) openSession() error {
	cfg, err := rt.Config()
	if err != nil {
		return err
	}

	if rt.flags.Ephemeral {
		rt.creds = credstore.NewMemory()
	} else {
		dir := filepath.Join(cfg.DataDir, "credentials")
		creds, err := credstore.OpenBadger(credstore.DefaultBadgerConfig(dir), rt.log)
		if err != nil {
			return fmt.Errorf("open credential store: %w", err)
		}
		rt.creds = creds
	}
	rt.shutdown.OnShutdown(func(context.Context) error {
		return rt.creds.Close()
	})

	rt.client = identity.NewClient(cfg.APIBaseURL,
		identity.WithTimeout(cfg.Timeout),
		identity.WithLogger(rt.log),
		identity.WithMetrics(rt.metrics),
	)
	if err := rt.setupTLS(cfg.CAFile); err != nil {
		return err
	}

	rt.store = session.New(rt.creds, rt.client,
		session.WithNotifier(rt.notifier),
		session.WithLogger(rt.log),
		session.WithMetrics(rt.metrics),
		session.WithKeepTokenOnTransportFailure(cfg.Session.KeepTokenOnTransportFailure),
	)
	if err := rt.metrics.Register(metric.NewCollector(rt.store)); err != nil {
		rt.log.Warn("failed to register session collector", "error", err)
	}
	return nil
}

// setupTLS trusts the CA bundle at caFile in addition to the system roots.
// The shell keeps watching the file and swaps the pool when it changes.
func (rt *Runtime) setupTLS(caFile string) error {
	if caFile == "" {
		return nil
	}
	if !rt.watchCA {
		pool, err := tlsroots.LoadCAFile(caFile)
		if err != nil {
			return fmt.Errorf("load CA file: %w", err)
		}
		rt.client.SetTLSConfig(pool.TLSConfig())
		return nil
	}

	w, err := tlsroots.NewWatcher(caFile,
		tlsroots.WithLogger(rt.log),
		tlsroots.WithOnReload(func(p *tlsroots.Pool) {
			rt.client.SetTLSConfig(p.TLSConfig())
		}),
	)
	if err != nil {
		return fmt.Errorf("load CA file: %w", err)
	}
	rt.client.SetTLSConfig(w.Current().TLSConfig())
	w.StartAsync()
	rt.watcher = w
	rt.shutdown.OnShutdown(func(context.Context) error {
		w.Stop()
		return nil
	})
	return nil
}

// Close runs the shutdown hooks: metrics are written, the CA watcher is
// stopped and the credential store is closed.
func (rt *Runtime) Close() error {
	return rt.shutdown.Run()
}

// runtimeFrom retrieves the runtime from the app metadata.
func runtimeFrom(c *cli.Context) *Runtime {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt
	}
	return nil
}
