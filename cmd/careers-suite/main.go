package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := 0
	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		code = 1
	}

	stop()
	os.Exit(code)
}
