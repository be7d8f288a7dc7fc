package config

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Defaults.
const (
	DefaultAPIBaseURL  = "http://127.0.0.1:8000"
	DefaultOutput      = "table"
	DefaultTimeout     = 30 * time.Second
	DefaultScheduleURL = "https://calendly.com/sidjagat2004/30min"
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
)

// CLIConfig is the configuration for the emplo CLI.
type CLIConfig struct {
	APIBaseURL  string        `koanf:"api_base_url"`
	Output      string        `koanf:"output"` // table, json, yaml
	DataDir     string        `koanf:"data_dir"`
	Timeout     time.Duration `koanf:"timeout"`
	CAFile      string        `koanf:"ca_file"`
	MetricsFile string        `koanf:"metrics_file"`
	ScheduleURL string        `koanf:"schedule_url"`

	Log     LogConfig     `koanf:"log"`
	Session SessionConfig `koanf:"session"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// SessionConfig tunes the session store.
type SessionConfig struct {
	// KeepTokenOnTransportFailure keeps the stored token when the identity
	// service cannot be reached at startup. The session then reports an
	// error instead of signing out.
	KeepTokenOnTransportFailure bool `koanf:"keep_token_on_transport_failure"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		APIBaseURL:  DefaultAPIBaseURL,
		Output:      DefaultOutput,
		DataDir:     DefaultDataDir(),
		Timeout:     DefaultTimeout,
		ScheduleURL: DefaultScheduleURL,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Keys lists every configuration key in display order.
func Keys() []string {
	return []string{
		"api_base_url",
		"output",
		"data_dir",
		"timeout",
		"ca_file",
		"metrics_file",
		"schedule_url",
		"log.level",
		"log.format",
		"session.keep_token_on_transport_failure",
	}
}

// Values returns every key with its value rendered as a string.
func (c *CLIConfig) Values() map[string]string {
	return map[string]string{
		"api_base_url": c.APIBaseURL,
		"output":       c.Output,
		"data_dir":     c.DataDir,
		"timeout":      c.Timeout.String(),
		"ca_file":      c.CAFile,
		"metrics_file": c.MetricsFile,
		"schedule_url": c.ScheduleURL,
		"log.level":    c.Log.Level,
		"log.format":   c.Log.Format,
		"session.keep_token_on_transport_failure": strconv.FormatBool(c.Session.KeepTokenOnTransportFailure),
	}
}

// Validate checks the loaded configuration.
func (c *CLIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIBaseURL, validation.Required, is.URL, validation.By(httpScheme)),
		validation.Field(&c.Output, validation.Required, validation.In("table", "json", "yaml")),
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.ScheduleURL, is.URL),
		validation.Field(&c.Log),
	)
}

// Validate checks the logger settings.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}

func httpScheme(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https")
	}
	return nil
}
