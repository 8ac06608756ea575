package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/empathai/chat-service/internal/cmd/migrate"
	"github.com/empathai/chat-service/internal/cmd/serve"
	"github.com/empathai/chat-service/internal/cmd/sweep"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "chat-service",
		Usage: "Empathetic chat companion with long-term memory",
		Commands: []*cli.Command{
			serve.Command(),
			migrate.Command(),
			sweep.Command(),
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
