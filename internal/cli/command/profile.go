package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/emplo-ai/emplo/internal/core/domain"
	"github.com/emplo-ai/emplo/internal/core/session"
)

// ProfileCommand returns the profile subcommand group.
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show or edit your profile",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your profile",
				Action: protected("profile show", profileShow),
			},
			{
				Name:  "update",
				Usage: "Update profile fields",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "New email address"},
					&cli.StringFlag{Name: "first-name", Usage: "New first name"},
					&cli.StringFlag{Name: "last-name", Usage: "New last name"},
					&cli.StringFlag{Name: "role", Usage: "New account type: " + roleList()},
					&cli.StringSliceFlag{Name: "set", Usage: "Field as KEY=VALUE (repeatable)"},
				},
				Action: protected("profile update", profileUpdate),
			},
		},
	}
}

func profileShow(c *cli.Context, store *session.Store) error {
	return runtimeFrom(c).Print(store.State().Identity)
}

func profileUpdate(c *cli.Context, store *session.Store) error {
	patch, err := patchFromFlags(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitFailure)
	}

	updated, err := store.UpdateProfile(c.Context, patch)
	switch {
	case err == nil:
		return runtimeFrom(c).Print(updated)
	case errors.Is(err, session.ErrSuperseded), errors.Is(err, context.Canceled):
		return cli.Exit(err.Error(), ExitFailure)
	default:
		// Already reported through the notifier.
		return failed()
	}
}

// patchFromFlags merges --set pairs with the dedicated field flags; the
// field flags win.
func patchFromFlags(c *cli.Context) (domain.IdentityPatch, error) {
	values := make(map[string]string)
	for _, kv := range c.StringSlice("set") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return domain.IdentityPatch{}, fmt.Errorf("invalid --set %q: expected KEY=VALUE", kv)
		}
		values[key] = value
	}
	patch, err := domain.ParsePatch(values)
	if err != nil {
		return domain.IdentityPatch{}, err
	}

	if c.IsSet("email") {
		v := c.String("email")
		patch.Email = &v
	}
	if c.IsSet("first-name") {
		v := c.String("first-name")
		patch.FirstName = &v
	}
	if c.IsSet("last-name") {
		v := c.String("last-name")
		patch.LastName = &v
	}
	if c.IsSet("role") {
		r := domain.Role(c.String("role"))
		patch.Role = &r
	}
	return patch, nil
}
