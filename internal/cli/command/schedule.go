package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/emplo-ai/emplo/internal/core/session"
)

// ScheduleCommand returns the schedule command.
func ScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:   "schedule",
		Usage:  "Show the link for booking an interview",
		Action: protected("schedule", scheduleShow),
	}
}

func scheduleShow(c *cli.Context, store *session.Store) error {
	rt := runtimeFrom(c)
	cfg, err := rt.Config()
	if err != nil {
		return err
	}
	id := store.State().Identity
	fmt.Fprintf(rt.stdout, "Book a meeting, %s:\n%s\n", id.DisplayName(), cfg.ScheduleURL)
	return nil
}
