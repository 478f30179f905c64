package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ownerdesk/ownerdesk/internal/app"
	"github.com/ownerdesk/ownerdesk/internal/directory"
	"github.com/ownerdesk/ownerdesk/internal/gate"
	"github.com/ownerdesk/ownerdesk/internal/identity"
	"github.com/ownerdesk/ownerdesk/internal/login"
	"github.com/ownerdesk/ownerdesk/internal/nav"
	"github.com/ownerdesk/ownerdesk/internal/observability"
	"github.com/ownerdesk/ownerdesk/internal/platform/cache"
	"github.com/ownerdesk/ownerdesk/internal/shared"
	"github.com/ownerdesk/ownerdesk/internal/upstream"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "ownerdesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.TokenTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	upstreamClient := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout, logger)

	loginController := login.NewController(logger, login.NewHTTPAuth(upstreamClient))
	loginHandler := login.NewHandler(logger, loginController, sessionManager)

	navCache := nav.NewFilterCache(nav.DefaultTable())
	navHandler := nav.NewHandler(logger, navCache)

	ownerGate := gate.New(identity.RoleOwner)
	gateMiddleware := gate.Middleware{Gate: ownerGate, SignInPath: nav.SignInPath, Logger: logger}

	directoryAPI := directory.NewHTTPAPI(upstreamClient)
	directoryHandler := directory.NewHandler(logger, directoryAPI, sessionManager, directory.Options{
		DebounceDelay: cfg.DirectoryDebounce,
		BannerTTL:     cfg.BannerTTL,
	})
	loginHandler.OnSignOut(directoryHandler.Release)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		LoginHandler:     loginHandler,
		NavHandler:       navHandler,
		DirectoryHandler: directoryHandler,
		GateMiddleware:   gateMiddleware,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
