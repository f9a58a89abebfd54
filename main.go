package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/PolarWolf314/keyward/cmd"
	"github.com/PolarWolf314/keyward/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Failed("%v", err))
		os.Exit(cmd.ExitCode(err))
	}
}
