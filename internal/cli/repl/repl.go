package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// Executor runs one parsed command line.
type Executor func(ctx context.Context, args []string) error

// ErrUnterminatedQuote is returned for lines with an open quote.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    func() string
	exec      Executor
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithInput sets the line source (default os.Stdin).
func WithInput(r io.Reader) Option {
	return func(rp *REPL) { rp.input = r }
}

// WithOutput sets where prompts and errors go (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(rp *REPL) { rp.output = w }
}

// WithPrompt sets a prompt that is re-evaluated before every line.
func WithPrompt(prompt func() string) Option {
	return func(rp *REPL) { rp.prompt = prompt }
}

// WithCompleter sets the known command paths.
func WithCompleter(c *Completer) Option {
	return func(rp *REPL) { rp.completer = c }
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(rp *REPL) { rp.history = h }
}

// New creates a new REPL that dispatches lines to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    func() string { return "emplo> " },
		exec:      exec,
		completer: NewCompleter(nil),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the REPL loop. It returns nil on exit, quit or end of input,
// and ctx.Err() once ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.output, r.prompt())

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}

		r.history.Add(line)

		switch line {
		case "exit", "quit":
			return nil
		case "help":
			r.printHelp()
		case "history":
			for _, entry := range r.history.Entries() {
				fmt.Fprintln(r.output, entry)
			}
		default:
			if err := r.execute(ctx, line); err != nil {
				fmt.Fprintf(r.output, "Error: %v\n", err)
			}
		}

		if eof {
			return nil
		}
	}
}

func (r *REPL) execute(ctx context.Context, line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] == "" {
		return nil
	}
	if !r.completer.Known(args[0]) {
		msg := fmt.Sprintf("unknown command %q", args[0])
		if s := r.completer.Complete(args[0][:1]); len(s) > 0 {
			msg += "; did you mean: " + strings.Join(s, ", ")
		}
		return errors.New(msg)
	}
	return r.exec(ctx, args)
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.output, "Commands:")
	for _, cmd := range r.completer.Commands() {
		fmt.Fprintf(r.output, "  %s\n", cmd)
	}
	fmt.Fprintln(r.output, "  help, history, exit")
}

// SplitArgs splits a line into words. Single and double quotes group words;
// a backslash escapes the next character outside single quotes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, c := range line {
		switch {
		case escaped:
			cur.WriteRune(c)
			escaped = false
		case c == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inWord = true
		case unicode.IsSpace(c):
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(c)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, ErrUnterminatedQuote
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
