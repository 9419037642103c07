// Command prms manages a local patient records database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/litikesh/Patient-Record-Management-System/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
