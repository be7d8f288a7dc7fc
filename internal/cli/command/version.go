package command

import (
	"github.com/urfave/cli/v2"

	"github.com/emplo-ai/emplo/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			return runtimeFrom(c).Print(buildinfo.Get())
		},
	}
}
