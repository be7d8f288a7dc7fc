package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/emplo-ai/emplo/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:      "get",
				Usage:     "Print one configuration value",
				ArgsUsage: "KEY",
				Action:    configGet,
			},
			{
				Name:      "set",
				Usage:     "Write a value to the config file",
				ArgsUsage: "KEY VALUE",
				Action:    configSet,
			},
			{
				Name:   "path",
				Usage:  "Print the config file path",
				Action: configPath,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	rt := runtimeFrom(c)
	cfg, err := rt.Config()
	if err != nil {
		return err
	}
	return rt.Print(cfg.Values())
}

func configGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: emplo config get KEY", ExitFailure)
	}
	rt := runtimeFrom(c)
	cfg, err := rt.Config()
	if err != nil {
		return err
	}

	value, err := config.Get(cfg, c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), ExitFailure)
	}
	fmt.Fprintln(rt.stdout, value)
	return nil
}

// configSet edits the file only, so it works even when the current
// configuration does not load.
func configSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: emplo config set KEY VALUE", ExitFailure)
	}
	rt := runtimeFrom(c)
	path := rt.configPath()
	key, value := c.Args().Get(0), c.Args().Get(1)

	if err := config.Set(path, key, value); err != nil {
		return cli.Exit(err.Error(), ExitFailure)
	}
	rt.Logger().Info("config updated", "path", path, "key", key)
	fmt.Fprintf(rt.stdout, "%s = %s\n", key, value)
	return nil
}

func configPath(c *cli.Context) error {
	rt := runtimeFrom(c)
	fmt.Fprintln(rt.stdout, rt.configPath())
	return nil
}

func configValidate(c *cli.Context) error {
	rt := runtimeFrom(c)
	if _, err := rt.Config(); err != nil {
		return err
	}
	fmt.Fprintf(rt.stdout, "Configuration is valid: %s\n", rt.configPath())
	return nil
}
