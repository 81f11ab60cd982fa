// Command server runs the administrative backend HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/backoffice-kit/backoffice/internal/auth"
	"github.com/backoffice-kit/backoffice/internal/config"
	"github.com/backoffice-kit/backoffice/internal/db"
	internalhttp "github.com/backoffice-kit/backoffice/internal/http"
	"github.com/backoffice-kit/backoffice/internal/logging"
	"github.com/backoffice-kit/backoffice/internal/persistence"
	"github.com/backoffice-kit/backoffice/internal/registry"
	"github.com/backoffice-kit/backoffice/internal/settings"
	"github.com/backoffice-kit/backoffice/internal/upload"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run(configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.LogLevel, cfg.LogFile)

	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if errRefresh := settings.Refresh(ctx, conn); errRefresh != nil {
		log.WithError(errRefresh).Warn("settings refresh failed, using configured defaults")
	}

	store := persistence.New(conn, registry.Default(), cfg.DefaultPageSize)
	authService := auth.NewService(store, auth.TokenConfig{
		SessionSecret: cfg.SessionTokenSecret,
		SessionExpiry: cfg.SessionTokenExpiry,
		ResetSecret:   cfg.ResetTokenSecret,
		ResetExpiry:   cfg.ResetTokenExpiry,
	})
	uploads := upload.NewDiskStore(cfg.AvatarDir, cfg.AvatarBaseURL)

	router := internalhttp.NewRouter(internalhttp.RouterDeps{
		DB:            conn,
		Store:         store,
		Auth:          authService,
		Uploads:       uploads,
		AvatarDir:     cfg.AvatarDir,
		AvatarBaseURL: cfg.AvatarBaseURL,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
