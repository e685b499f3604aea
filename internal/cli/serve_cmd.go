package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/orlo/internal/api"
	"github.com/ashureev/orlo/internal/config"
	"github.com/ashureev/orlo/internal/expiry"
	"github.com/ashureev/orlo/internal/identity"
	"github.com/ashureev/orlo/internal/live"
	"github.com/ashureev/orlo/internal/middleware"
	"github.com/ashureev/orlo/internal/session"
	"github.com/ashureev/orlo/internal/store"
	"github.com/ashureev/orlo/internal/ui"
	"github.com/ashureev/orlo/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var port, backend string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Orlo web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *app.Config
			if port != "" {
				cfg.Port = port
			}
			if backend != "" {
				cfg.StoreBackend = backend
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := newLogger(app.Stdout, cfg.SlogLevel())
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, app, &cfg, logger)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&backend, "store", "", "session store: memory or sqlite (overrides STORE_BACKEND)")
	return cmd
}

// Server holds the wired components of a running server.
type Server struct {
	Router  http.Handler
	Repo    store.Repository
	Ctrl    *session.Controller
	Live    *live.Manager
	Expirer *expiry.Worker
}

// NewServer builds the store, controller and router for cfg. Stored
// sessions from an earlier run are discarded.
func NewServer(ctx context.Context, app *App, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	gen, err := app.NewGenerator(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}

	repo, err := store.New(cfg.StoreBackend, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("store health check: %w", err)
	}
	purged, err := repo.PurgeAll(ctx)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("purge stale sessions: %w", err)
	}
	logger.Info("Session store ready", "backend", cfg.StoreBackend, "purged", purged)

	renderer, err := ui.NewRenderer()
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	ctrl := session.NewController(repo, gen, session.WithLogger(logger))
	liveMgr := live.NewManager()

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	api.NewHealthHandler(repo, cfg.StoreBackend, cfg.Gemini.Model).RegisterHealth(r)
	r.Handle("/static/*", web.StaticHandler())

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(!cfg.IsDevelopment()))
		api.NewHandler(ctrl, renderer, cfg.MaxRequestBodySize).RegisterRoutes(r)
		r.Get("/ws/chat", live.NewHandler(ctrl, liveMgr, cfg.AllowedOrigins, cfg.IsDevelopment(), cfg.MaxRequestBodySize).ServeHTTP)
	})

	worker := expiry.NewWorker(repo, ctrl, cfg.SessionTTL, cfg.SweepInterval, liveMgr.CloseSession, logger)

	return &Server{
		Router:  r,
		Repo:    repo,
		Ctrl:    ctrl,
		Live:    liveMgr,
		Expirer: worker,
	}, nil
}

func serve(ctx context.Context, app *App, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "store", cfg.StoreBackend)

	s, err := NewServer(ctx, app, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Repo.Close(); closeErr != nil {
			logger.Error("Failed to close repository", "error", closeErr)
		}
	}()

	// No WriteTimeout: WebSocket connections are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.Expirer.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")
		s.Live.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped successfully")
	return nil
}
