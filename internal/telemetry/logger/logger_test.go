package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Level)
	}
	if cfg.Format != "text" {
		t.Errorf("Format = %q, want text", cfg.Format)
	}
	if cfg.Output != os.Stderr {
		t.Error("Output should be stderr so stdout stays machine-readable")
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"debug", []string{"debug", "info", "warn", "error"}},
		{"info", []string{"info", "warn", "error"}},
		{"warn", []string{"warn", "error"}},
		{"warning", []string{"warn", "error"}},
		{"error", []string{"error"}},
		{"", []string{"warn", "error"}},
		{"loud", []string{"warn", "error"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: tt.level, Format: "text", Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			l.Debug("debug")
			l.Info("info")
			l.Warn("warn")
			l.Error("error")

			var got []string
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				if i := strings.Index(line, "msg="); i >= 0 {
					got = append(got, line[i+len("msg="):])
				}
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("logged %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "JSON", Output: &buf})

	l.With("component", "session").Info("signed in", "user_id", "42")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "signed in" || entry["component"] != "session" || entry["user_id"] != "42" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestWith_RedactsBoundAttributes(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "text", Output: &buf})

	l.With("password", "Passw0rd").Info("sign in", "authorization", "Bearer "+sampleJWT)

	out := buf.String()
	if strings.Contains(out, "Passw0rd") || strings.Contains(out, sampleJWT) {
		t.Errorf("credential leaked into log output: %s", out)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	l.With("k", "v").Debug("dropped")
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "text", Output: &buf})
	SetDefault(l)
	Default().Info("via default")

	if !strings.Contains(buf.String(), "via default") {
		t.Errorf("Default() did not return the logger set by SetDefault")
	}

	SetDefault(nil)
	if Default() != l {
		t.Error("SetDefault(nil) must keep the current logger")
	}
}
