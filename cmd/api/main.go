package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agent-platform/internal/auth"
	"agent-platform/internal/bootstrap"
	"agent-platform/internal/catalog"
	"agent-platform/internal/config"
	"agent-platform/internal/httpapi"
	"agent-platform/internal/telephony"
	"agent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadDotEnv()

	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPI()
	if err != nil {
		slog.Error("config load failed", "err", err, "missing", config.MissingKeys(err))
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	stores, err := bootstrap.OpenStores(rootCtx, cfg, log)
	if err != nil {
		log.Error("store init failed", "err", err)
		os.Exit(1)
	}
	defer stores.Close()

	history, err := bootstrap.RunHistory(rootCtx, stores)
	if err != nil {
		log.Error("run history init failed", "err", err)
		os.Exit(1)
	}

	store, err := catalog.NewWeaviateStore(cfg.Catalog)
	if err != nil {
		log.Error("catalog init failed", "err", err)
		os.Exit(1)
	}

	h := httpapi.Handlers{
		Auth:    authManager,
		Catalog: catalog.NewService(store),
		Runs:    history,
	}
	if cfg.ProvisioningEnabled() {
		if carrier, err := telephony.NewTwilioTrunking(cfg.Carrier); err == nil {
			_ = bootstrap.CheckCarrier(rootCtx, carrier, log)
		}
		p, err := bootstrap.Provisioner(cfg, stores, history, log)
		if err != nil {
			log.Error("provisioner init failed", "err", err)
			os.Exit(1)
		}
		h.Provisioner = p
	} else {
		log.Warn("carrier credentials not set; provisioning endpoint disabled")
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, "/healthz", "/metrics"))

	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// provisioning runs three sequential remote calls
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
