package repl

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

var shellCommands = []string{"auth login", "auth logout", "auth status", "profile show", "profile update", "schedule"}

// recorder collects executed argument lists.
type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) exec(ctx context.Context, args []string) error {
	r.calls = append(r.calls, args)
	return r.err
}

func newTestREPL(input string, rec *recorder) (*REPL, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := New(rec.exec,
		WithInput(strings.NewReader(input)),
		WithOutput(out),
		WithCompleter(NewCompleter(shellCommands)),
	)
	return r, out
}

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit command", "exit\n"},
		{"quit command", "quit\n"},
		{"EOF", ""}, // Ctrl+D
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestREPL(tt.input, &recorder{})
			if err := r.Run(context.Background()); err != nil {
				t.Errorf("Run() returned error: %v", err)
			}
		})
	}
}

func TestREPL_Run_EmptyLines(t *testing.T) {
	r, out := newTestREPL("\n\n\nexit\n", &recorder{})

	if err := r.Run(context.Background()); err != nil {
		t.Errorf("Run() returned error: %v", err)
	}
	if prompts := strings.Count(out.String(), "emplo>"); prompts < 4 {
		t.Errorf("expected at least 4 prompts, got %d", prompts)
	}
}

func TestREPL_Run_DispatchesCommands(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestREPL("profile show\nprofile update --set 'first_name=Mary Ann'\nexit\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	want := [][]string{
		{"profile", "show"},
		{"profile", "update", "--set", "first_name=Mary Ann"},
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %q, want %q", rec.calls, want)
	}
}

func TestREPL_Run_LastLineWithoutNewline(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestREPL("schedule", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(rec.calls))
	}
}

func TestREPL_Run_ExecutorError(t *testing.T) {
	rec := &recorder{err: errors.New("sign in required")}
	r, out := newTestREPL("profile show\nexit\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Error: sign in required") {
		t.Errorf("output = %q, want executor error", out.String())
	}
}

func TestREPL_Run_UnknownCommand(t *testing.T) {
	rec := &recorder{}
	r, out := newTestREPL("prof\nexit\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("unknown command should not be executed")
	}
	if !strings.Contains(out.String(), `unknown command "prof"; did you mean: profile show, profile update`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestREPL_Run_Help(t *testing.T) {
	r, out := newTestREPL("help\nexit\n", &recorder{})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	for _, cmd := range shellCommands {
		if !strings.Contains(out.String(), cmd) {
			t.Errorf("help missing %q", cmd)
		}
	}
}

func TestREPL_Run_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, _ := newTestREPL("schedule\n", &recorder{})

	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestREPL_Run_PromptReevaluated(t *testing.T) {
	n := 0
	out := &bytes.Buffer{}
	r := New((&recorder{}).exec,
		WithInput(strings.NewReader("schedule\nexit\n")),
		WithOutput(out),
		WithPrompt(func() string { n++; return "p> " }),
	)

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("prompt evaluated %d times, want 2", n)
	}
}

func TestREPL_Run_HistoryAdded(t *testing.T) {
	history := NewHistory("")
	out := &bytes.Buffer{}
	r := New((&recorder{}).exec,
		WithInput(strings.NewReader("  auth status  \nauth login --password secret\n\texit\t\n")),
		WithOutput(out),
		WithHistory(history),
	)

	if err := r.Run(context.Background()); err != nil {
		t.Errorf("Run() returned error: %v", err)
	}

	if history.Get(0) != "exit" {
		t.Errorf("most recent command = %q, want %q", history.Get(0), "exit")
	}
	if history.Get(1) != "auth status" {
		t.Errorf("second most recent = %q, want %q (password lines are skipped)", history.Get(1), "auth status")
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"auth login", []string{"auth", "login"}, false},
		{"  spaced   out  ", []string{"spaced", "out"}, false},
		{`a "b c" d`, []string{"a", "b c", "d"}, false},
		{`--set 'last_name=O Neil'`, []string{"--set", "last_name=O Neil"}, false},
		{`a\ b`, []string{"a b"}, false},
		{`x ""`, []string{"x", ""}, false},
		{`"open`, nil, true},
		{`trailing\`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitArgs(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitArgs(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}
