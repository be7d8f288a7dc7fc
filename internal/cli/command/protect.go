package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/emplo-ai/emplo/internal/cli/output"
	"github.com/emplo-ai/emplo/internal/core/gate"
	"github.com/emplo-ai/emplo/internal/core/session"
	"github.com/emplo-ai/emplo/internal/telemetry/logger"
)

// protected wraps the action of a command that needs a signed-in session.
// The session is initialized while the gate waits; a "Loading..." spinner
// is shown on stderr until the gate decides.
func protected(location gate.Location, action func(*cli.Context, *session.Store) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := authorize(c, location)
		if err != nil {
			return err
		}
		return action(c, store)
	}
}

func authorize(c *cli.Context, location gate.Location) (*session.Store, error) {
	rt := runtimeFrom(c)
	store, err := rt.Store()
	if err != nil {
		return nil, err
	}

	initDone := make(chan struct{})
	go func() {
		defer close(initDone)
		store.Initialize(c.Context)
	}()

	var spinner *output.Spinner
	decision, err := rt.Gate().Await(c.Context, store, location, func() {
		spinner = output.NewSpinner(rt.stderr, "Loading...")
		spinner.Start()
	})
	if spinner != nil {
		spinner.Stop()
	}
	<-initDone
	if err != nil {
		return nil, fmt.Errorf("waiting for session: %w", err)
	}

	logger.L(c.Context).Debug("gate decision", "location", string(location), "decision", decision.String())
	if decision.Kind == gate.Redirect {
		return nil, &RedirectError{Decision: decision}
	}
	return store, nil
}
