package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/flathunt/platform/admin-cli/internal/commands"
	"github.com/flathunt/platform/shared/database"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCommand(database.Open).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
