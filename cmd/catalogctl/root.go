package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"agent-platform/internal/catalog"
	"agent-platform/internal/config"
	"agent-platform/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"
)

var (
	cfg            config.Config
	catalogService *catalog.Service
)

var rootCmd = &cobra.Command{
	Use:          "catalogctl",
	Short:        "Manage the sales catalog",
	Long:         `Creates and loads the SalesItem catalog in Weaviate, runs semantic sales lookups and issues API tokens.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadCatalog()
		if err != nil {
			return err
		}
		cfg = loaded
		log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.App.Env, strings.ToLower(os.Getenv("LOG_LEVEL")))
		slog.SetDefault(log)
		cmd.SetContext(logger.With(commandContext(cmd), log))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		pushMetrics(cmd)
	},
}

// pushMetrics exports catalog metrics when PUSHGATEWAY_URL is set.
func pushMetrics(cmd *cobra.Command) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pusher := push.New(cfg.Metrics.PushgatewayURL, "catalogctl")
	for _, c := range catalog.Collectors() {
		pusher = pusher.Collector(c)
	}
	if err := pusher.PushContext(ctx); err != nil {
		logger.From(cmd.Context()).Warn("metrics push failed", "err", err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// catalogSvc returns the injected service or builds one over Weaviate.
func catalogSvc() (*catalog.Service, error) {
	if catalogService != nil {
		return catalogService, nil
	}
	store, err := catalog.NewWeaviateStore(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	catalogService = catalog.NewService(store)
	return catalogService, nil
}
