package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emplo-ai/emplo/internal/infra/confloader"
)

// ErrUnknownKey is returned for keys that are not part of CLIConfig.
var ErrUnknownKey = errors.New("unknown config key")

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".emplo", "cli.yaml")
}

// DefaultDataDir returns the default directory for persisted credentials.
func DefaultDataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".emplo")
}

// Load reads the configuration from path (which may not exist), EMPLO_*
// environment variables, API_BASE_URL, and finally overrides taken from
// command-line flags. The result is validated.
func Load(path string, overrides map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	loader := confloader.NewLoader(
		confloader.WithOptionalConfigFile(path),
		confloader.WithDefaults(defaultValues()),
		confloader.WithKnownKeys(Keys()...),
		confloader.WithEnvAlias("API_BASE_URL", "api_base_url"),
		confloader.WithOverrides(overrides),
	)

	cfg := &CLIConfig{}
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	cfg.DataDir = ExpandHome(cfg.DataDir)
	cfg.CAFile = ExpandHome(cfg.CAFile)
	cfg.MetricsFile = ExpandHome(cfg.MetricsFile)
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultValues() map[string]any {
	values := Default().Values()
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

// Get returns the value of one key.
func Get(cfg *CLIConfig, key string) (string, error) {
	v, ok := cfg.Values()[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return v, nil
}

// Set writes key=value into the YAML file at path, creating the file and
// its directory when needed. The value is validated first and the file is
// written with 0600 permissions.
func Set(path, key, value string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if !slices.Contains(Keys(), key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	typed, err := parseValue(key, value)
	if err != nil {
		return err
	}

	doc := make(map[string]any)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if doc == nil {
			doc = make(map[string]any)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("read %s: %w", path, err)
	}

	setNested(doc, strings.Split(key, "."), typed)

	// Check the edited document still forms a valid configuration.
	check := confloader.NewLoader(
		confloader.WithDefaults(defaultValues()),
		confloader.WithOverrides(flatten(doc, "")),
		confloader.WithoutEnv(),
	)
	candidate := &CLIConfig{}
	if err := check.Load(candidate); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := candidate.Validate(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return Save(path, out)
}

// Save writes raw YAML to path with owner-only permissions.
func Save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(path, 0600)
}

func parseValue(key, value string) (any, error) {
	switch key {
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		return d.String(), nil
	case "session.keep_token_on_transport_failure":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		return b, nil
	default:
		return value, nil
	}
}

func setNested(doc map[string]any, path []string, value any) {
	for _, part := range path[:len(path)-1] {
		child, ok := doc[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			doc[part] = child
		}
		doc = child
	}
	doc[path[len(path)-1]] = value
}

func flatten(doc map[string]any, prefix string) map[string]any {
	out := make(map[string]any)
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			for ck, cv := range flatten(child, key) {
				out[ck] = cv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
