package main

import (
	"context"
	"os"

	"github.com/emplo-ai/emplo/internal/cli/command"
	"github.com/emplo-ai/emplo/internal/infra/shutdown"
)

func main() {
	ctx, stop := shutdown.WithSignals(context.Background())
	err := command.App().RunContext(ctx, os.Args)
	stop()

	os.Exit(command.ExitCode(os.Stderr, err))
}
