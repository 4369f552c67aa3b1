// Command brutalist parses, optimizes, runs and translates programs for
// the eight-command tape language.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/brutalist/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// The first signal cancels the running program; a second one, for
	// example while blocked reading stdin, kills the process as usual.
	context.AfterFunc(ctx, stop)

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err == nil {
		return
	}

	// Commands report their own errors; anything else (unknown flags,
	// missing arguments) is printed here.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
