package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/api"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/auth"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/config"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/ledger"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/middleware"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/notify"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/storage/sqlite"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Environment)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.NewWebhook(cfg.NotifyWebhookURL, nil)
		slog.Info("Webhook notifier enabled", "url", cfg.NotifyWebhookURL)
	}

	lgr := ledger.New(store)
	processor := ledger.NewProcessor(store, lgr, notifier)
	planner := ledger.NewPlanner(lgr)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	handler := api.NewHandler(store, processor, lgr, planner)
	router := handler.Router(middleware.RequireAuth(jwtManager))

	// HTTP/2 without TLS, for clients that negotiate h2c
	h2cHandler := h2c.NewHandler(router, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Server starting", "address", addr, "environment", cfg.Environment)
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
