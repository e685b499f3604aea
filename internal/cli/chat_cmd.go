package cli

import (
	"errors"
	"fmt"

	"github.com/ashureev/orlo/internal/identity"
	"github.com/ashureev/orlo/internal/session"
	"github.com/ashureev/orlo/internal/store"
	"github.com/ashureev/orlo/internal/tui"
	"github.com/spf13/cobra"
)

// ErrNotInteractive is returned when chat is started without a terminal.
var ErrNotInteractive = errors.New("orlo chat needs an interactive terminal; use `orlo plan` for scripts")

func newChatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive study session in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !app.IsInteractive() {
				return ErrNotInteractive
			}

			ctx := cmd.Context()
			logger := newLogger(app.Stderr, quietLevel(app.Config.SlogLevel()))
			gen, err := app.NewGenerator(ctx, app.Config, logger)
			if err != nil {
				return fmt.Errorf("create generator: %w", err)
			}

			// Terminal sessions live only as long as the process.
			repo := store.NewMemory()
			defer func() { _ = repo.Close() }()
			ctrl := session.NewController(repo, gen, session.WithLogger(logger))

			chat := tui.NewChat(ctrl, identity.NewSessionID(), tui.NewPrinter(true, 80), nil)
			return chat.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
