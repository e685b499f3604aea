// Package cli wires the orlo commands.
package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ashureev/orlo/internal/agent"
	"github.com/ashureev/orlo/internal/config"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// timeNow is the clock used for form defaults.
var timeNow = time.Now

// GeneratorFactory builds the generation client for cfg.
type GeneratorFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (agent.Generator, error)

// App holds what every command needs.
type App struct {
	Config        *config.Config
	NewGenerator  GeneratorFactory
	IsInteractive func() bool
	Stdout        io.Writer
	Stderr        io.Writer
}

// NewApp returns an App using the Gemini client and the process's terminal.
func NewApp(cfg *config.Config) *App {
	return &App{
		Config:       cfg,
		NewGenerator: NewGeminiGenerator,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// NewGeminiGenerator builds the Gemini client wrapped with request logging.
func NewGeminiGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (agent.Generator, error) {
	client, err := agent.NewGeminiClient(ctx, agent.GeminiConfig{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
	}, &http.Client{Timeout: 2 * time.Minute}, logger)
	if err != nil {
		return nil, err
	}
	return agent.WithLogging(client, logger), nil
}

// NewRootCmd creates the top-level "orlo" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "orlo",
		Short:         "Study plan generator and study chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Stdout)
	root.SetErr(app.Stderr)

	root.AddCommand(
		newServeCmd(app),
		newChatCmd(app),
		newPlanCmd(app),
	)

	return root
}

// newLogger returns the JSON logger used by every command.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// quietLevel keeps terminal sessions free of routine logs.
func quietLevel(level slog.Level) slog.Level {
	if level < slog.LevelWarn {
		return slog.LevelWarn
	}
	return level
}
