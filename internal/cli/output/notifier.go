package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/emplo-ai/emplo/internal/core/session"
)

// TerminalNotifier prints session toasts, one line each.
type TerminalNotifier struct {
	mu      sync.Mutex
	w       io.Writer
	ok      *color.Color
	failure *color.Color
}

var _ session.Notifier = (*TerminalNotifier)(nil)

// NewTerminalNotifier writes toasts to w. useColors follows the same rules
// as the rest of the CLI: off for NO_COLOR, dumb terminals and pipes.
func NewTerminalNotifier(w io.Writer, useColors bool) *TerminalNotifier {
	n := &TerminalNotifier{
		w:       w,
		ok:      color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
	}
	if useColors {
		n.ok.EnableColor()
		n.failure.EnableColor()
	} else {
		n.ok.DisableColor()
		n.failure.DisableColor()
	}
	return n
}

// Notify prints t. Destructive toasts are marked with a cross.
func (n *TerminalNotifier) Notify(t session.Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()

	c, mark := n.ok, "✓"
	if t.Variant == session.VariantDestructive {
		c, mark = n.failure, "✗"
	}
	if t.Description == "" {
		c.Fprintf(n.w, "%s %s\n", mark, t.Title)
		return
	}
	c.Fprintf(n.w, "%s %s: ", mark, t.Title)
	fmt.Fprintln(n.w, t.Description)
}

// UseColors reports whether colour output is appropriate for the process.
// fatih/color already honours NO_COLOR and checks that stdout is a terminal.
func UseColors() bool {
	return !color.NoColor
}
