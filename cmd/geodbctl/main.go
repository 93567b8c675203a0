// Command geodbctl inspects and changes the account topology that geodb
// clients discover through NATS KV.
//
// Usage:
//
//	geodbctl show
//	geodbctl publish --file account.yaml
//	geodbctl failover --location "West US"
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}
