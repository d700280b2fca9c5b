package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/safar/crm-store/internal/app"
	"github.com/safar/crm-store/internal/config"
	"github.com/safar/crm-store/internal/crm"
	"github.com/safar/crm-store/internal/graph"
	"github.com/safar/crm-store/internal/logging"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		stop()
		log.WithError(err).Fatal("api")
	}
}

// run serves the API until ctx is done or the listener fails. The store is
// closed before it returns either way.
func run(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) error {
	backend, closeBackend, err := app.Open(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := closeBackend(); err != nil {
			log.WithError(err).Warn("close store")
		}
	}()

	svc := crm.NewService(backend, log)
	router := graph.NewRouter(graph.NewResolver(svc, backend, log), cfg.Server.GraphQLPath)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port": cfg.Server.Port,
			"path": cfg.Server.GraphQLPath,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
