// Package gate decides whether a protected command may run.
//
// The decision is a pure function of the session state. Await adds the
// waiting: it follows a state source until the state leaves its transient
// phases so that no redirect is decided before the identity check finishes.
package gate

import (
	"context"
	"fmt"

	"github.com/emplo-ai/emplo/internal/core/domain"
)

// Location names a view, e.g. the command path "profile show".
type Location string

// DefaultEntry is the sign-in surface.
const DefaultEntry Location = "auth login"

// Kind is the outcome of a decision.
type Kind int

const (
	// Placeholder means the state is not known yet; show a neutral
	// placeholder and decide again later.
	Placeholder Kind = iota
	// Redirect means the caller must send the user to the entry surface.
	Redirect
	// Render means the protected content may be shown.
	Render
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Placeholder:
		return "placeholder"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Decision is the gate's verdict. To and From are set for redirects only;
// From is the originally requested location so the caller can return to it.
type Decision struct {
	Kind Kind
	To   Location
	From Location
}

// String renders the decision for logs.
func (d Decision) String() string {
	if d.Kind == Redirect {
		return fmt.Sprintf("redirect %q -> %q", d.From, d.To)
	}
	return d.Kind.String()
}

// Decide maps a session state to a decision for the requested location,
// redirecting to DefaultEntry. It has no side effects.
func Decide(state domain.SessionState, requested Location) Decision {
	return decide(state, requested, DefaultEntry)
}

func decide(state domain.SessionState, requested, entry Location) Decision {
	switch state.Phase {
	case domain.PhaseAuthenticated:
		return Decision{Kind: Render}
	case domain.PhaseAnonymous, domain.PhaseError:
		return Decision{Kind: Redirect, To: entry, From: requested}
	default:
		return Decision{Kind: Placeholder}
	}
}

// StateSource is the read side of the session store.
type StateSource interface {
	State() domain.SessionState
	Subscribe() (<-chan domain.SessionState, func())
}

// Gate decides for a fixed entry surface.
type Gate struct {
	entry Location
}

// New creates a Gate redirecting to entry. An empty entry means DefaultEntry.
func New(entry Location) *Gate {
	if entry == "" {
		entry = DefaultEntry
	}
	return &Gate{entry: entry}
}

// Entry returns the redirect target.
func (g *Gate) Entry() Location {
	return g.entry
}

// Decide is Decide with the gate's entry surface.
func (g *Gate) Decide(state domain.SessionState, requested Location) Decision {
	return decide(state, requested, g.entry)
}

// Await follows src until it yields a non-placeholder decision. onPlaceholder,
// if set, is called once the first time the state is transient.
func (g *Gate) Await(ctx context.Context, src StateSource, requested Location, onPlaceholder func()) (Decision, error) {
	states, unsubscribe := src.Subscribe()
	defer unsubscribe()

	notified := false
	for {
		select {
		case <-ctx.Done():
			return Decision{Kind: Placeholder}, ctx.Err()
		case st, ok := <-states:
			if !ok {
				return Decision{Kind: Placeholder}, fmt.Errorf("gate: state source closed")
			}
			d := g.Decide(st, requested)
			if d.Kind != Placeholder {
				return d, nil
			}
			if !notified && onPlaceholder != nil {
				notified = true
				onPlaceholder()
			}
		}
	}
}
