package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/carewatch/internal/config"
	"github.com/dukerupert/carewatch/internal/database"
	"github.com/dukerupert/carewatch/internal/email"
	"github.com/dukerupert/carewatch/internal/health"
	"github.com/dukerupert/carewatch/internal/logging"
	"github.com/dukerupert/carewatch/internal/push"
	"github.com/dukerupert/carewatch/internal/server"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closeLog := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer closeLog()

	// The API starts even when the database is unreachable; the monitor
	// connects in the background and /api/ answers 503 until it does.
	db, err := database.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state := health.New()
	monitor := database.NewMonitor(db, state, logger.With("component", "database"))
	go monitor.Run(ctx)

	srv := server.New(db, state, server.Options{
		CORSOrigins:    cfg.CORSOrigins,
		EnforceRoles:   cfg.EnforceRoles,
		AccessCodeHash: cfg.AccessCodeHash,
		SOSRateLimit:   cfg.SOSRateLimit,
		Location:       cfg.Timezone,
		Push: push.Config{
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			Subscriber:      cfg.VAPIDSubscriber,
		},
		Email: email.Config{
			ServerToken: cfg.PostmarkToken,
			From:        cfg.EmailFrom,
			To:          cfg.EscalationEmails,
		},
		EscalateAfter: cfg.EscalateAfter,
	}, logger)
	srv.Start(ctx)

	if !cfg.EnforceRoles {
		logger.Warn("role enforcement disabled; any caller may use every endpoint")
	}
	if cfg.VAPIDPublicKey == "" {
		logger.Info("push notifications disabled; run `carewatch vapid-keys` to enable")
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("carewatch listening", "addr", httpServer.Addr, "db", cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	stop()
	srv.Stop()
	return nil
}
