// Command stubapi runs the development stand-in for the remote user API.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/ownerdesk/ownerdesk/internal/app"
	"github.com/ownerdesk/ownerdesk/internal/upstream/stub"
)

type config struct {
	Addr          string        `envconfig:"STUB_ADDR" default:":9090"`
	ReadTimeout   time.Duration `envconfig:"STUB_READ_TIMEOUT" default:"10s"`
	WriteTimeout  time.Duration `envconfig:"STUB_WRITE_TIMEOUT" default:"10s"`
	OwnerMobile   string        `envconfig:"STUB_OWNER_MOBILE" default:"1234567890"`
	OwnerPassword string        `envconfig:"STUB_OWNER_PASSWORD" default:"Abcdefg1"`
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	server, err := stub.New(logger, cfg.OwnerMobile, cfg.OwnerPassword)
	if err != nil {
		logger.Error("seed stub", slog.Any("error", err))
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("starting stub api", slog.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
