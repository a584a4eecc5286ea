package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bobmcallan/navcheck/internal/common"
)

func main() {
	common.LoadEnvironment()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, errChecksFailed) {
		stop()
		os.Exit(2)
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
	stop()
	os.Exit(1)
}
