package cli

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/clubhub/internal/config"
	"github.com/javajoker/clubhub/internal/database"
	"github.com/javajoker/clubhub/internal/preferences"
	"github.com/javajoker/clubhub/internal/router"
	"github.com/javajoker/clubhub/internal/services"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing database is not fatal; the club service falls back to the
	// bundled dataset.
	remote, cleanup := openRemote(cfg)
	defer cleanup()

	storage, err := services.NewStorageService(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	prefs := preferences.NewFileStore(cfg.Preferences.Path)
	clubService := services.NewClubService(remote, prefs, storage, cfg.Sync)
	defer clubService.Close()

	avatarService := services.NewAvatarService(cfg.OpenAI, storage)

	clubService.Start(ctx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Initialize(cfg, router.Services{
		Clubs:   clubService,
		Avatars: avatarService,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrus.Info("Server exited")
	return nil
}

// openRemote connects the PostgreSQL gateway and its change feed. It returns a
// nil store when the database is unreachable.
func openRemote(cfg *config.Config) (services.RemoteClubs, func()) {
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Warn("Database unavailable; remote mode will serve the static dataset")
		return nil, func() {}
	}

	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Warn("Migrations failed")
	}

	feed := openFeed(cfg)
	gateway := services.NewClubGateway(db, feed, cfg.Database.NotifyChannel)

	return gateway, func() {
		if feed != nil {
			feed.Close()
		}
		database.Close(db)
	}
}

func openFeed(cfg *config.Config) *services.ClubFeed {
	listener, err := database.NewListener(cfg.Database)
	if err != nil {
		logrus.WithError(err).Warn("Change feed unavailable; subscriptions will be snapshot-only")
		return nil
	}

	feed := services.NewClubFeed(listener)
	feed.Start()
	return feed
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
