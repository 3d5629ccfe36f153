package cmd

import (
	"context"
	"fmt"
	"time"

	"shogun/application"
	"shogun/httpapi"

	log "github.com/sirupsen/logrus"
)

// shutdownTimeout bounds how long in-flight requests may drain
const shutdownTimeout = 10 * time.Second

// Run starts the HTTP server and, when enabled, the accrual worker, until ctx is cancelled
func Run(ctx context.Context) error {
	log.Info("Starting shogun engine...")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	stopWorker := func() {}
	if a.cfg.AccrualWorkerEnabled {
		worker := application.NewAccrualWorker(a.engine, a.cfg.AccrualHour, a.cfg.Location())
		stopWorker = worker.Start(ctx)
		log.WithFields(log.Fields{
			"hour":     a.cfg.AccrualHour,
			"timezone": a.cfg.BusinessTimezone,
		}).Info("Accrual worker started")
	}

	server := httpapi.NewServer(a.cfg.HTTPAddr, a.engine, a.cfg.Location())
	server.AddHealthCheck("database", a.db.Ping)
	if a.natsClient != nil {
		server.AddHealthCheck("nats", a.natsClient.HealthCheck)
	}
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.WithField("environment", a.cfg.Environment).Info("Engine is running")

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	log.Info("Shutting down engine...")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	a.Close(shutdownCtx)

	log.Info("Shutdown completed")
	return runErr
}
