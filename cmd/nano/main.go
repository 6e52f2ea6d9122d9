// Command nano is a command-line client for the CouchDB HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kivik/nano/cmd/nano/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	cmd.Execute(ctx)
}
