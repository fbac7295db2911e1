// Command rqlc compiles RQL queries into backend statements.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/inversion-api/inversion-engine-sub011/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
