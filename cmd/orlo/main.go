// Orlo - study plan generator and study chat.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ashureev/orlo/internal/cli"
	"github.com/ashureev/orlo/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	return cli.NewRootCmd(cli.NewApp(cfg)).ExecuteContext(context.Background())
}
