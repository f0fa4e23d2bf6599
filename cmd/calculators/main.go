package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/goliatone/go-calculator/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCmd(version)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, cli.ErrChecksFailed) {
			fmt.Fprintf(os.Stderr, "calculators: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
