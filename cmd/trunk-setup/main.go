// Command trunk-setup connects a Twilio Elastic SIP trunk to the LiveKit SIP
// gateway for one phone number. Configuration comes from the environment
// (and .env). The exit code reports how far the run got.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"agent-platform/internal/bootstrap"
	"agent-platform/internal/config"
	"agent-platform/internal/provision"
	"agent-platform/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	exitComplete   = 0
	exitConfig     = 1
	exitCarrier    = 2
	exitIncomplete = 3
	exitBusy       = 4
)

func main() {
	config.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, w io.Writer) int {
	log := logger.NewWithWriter(w, os.Getenv("APP_ENV"), strings.ToLower(os.Getenv("LOG_LEVEL")))
	slog.SetDefault(log)
	ctx = logger.With(ctx, log)

	cfg, err := config.LoadProvisioning()
	if err != nil {
		for _, key := range config.MissingKeys(err) {
			log.Error("missing required environment variable", "key", key)
		}
		log.Error("configuration invalid", "err", err)
		return exitConfig
	}

	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Error("backing services unavailable", "err", err)
		return exitConfig
	}
	defer stores.Close()

	history, err := bootstrap.RunHistory(ctx, stores)
	if err != nil {
		log.Error("run history init failed", "err", err)
		return exitConfig
	}
	p, err := bootstrap.Provisioner(cfg, stores, history, log)
	if err != nil {
		log.Error("provisioner init failed", "err", err)
		return exitConfig
	}

	res, err := p.Provision(ctx, bootstrap.TrunkConfig(cfg))
	pushMetrics(cfg, log)

	code := exitCode(err)
	if code == exitComplete {
		log.Info("trunk setup complete",
			"carrier_trunk_sid", res.CarrierTrunk.SID,
			"carrier_domain", res.CarrierTrunk.DomainName,
			"inbound_trunk_id", res.InboundTrunkID,
			"dispatch_rule_id", res.DispatchRuleID,
		)
	} else {
		log.Error("trunk setup did not complete", "stage", res.Stage.String(), "exit_code", code, "err", err)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitComplete
	case errors.Is(err, provision.ErrBusy):
		return exitBusy
	case errors.Is(err, provision.ErrInvalidConfig):
		return exitConfig
	case provision.IsCarrierError(err):
		return exitCarrier
	case provision.IsGatewayError(err):
		return exitIncomplete
	default:
		return exitConfig
	}
}

// pushMetrics exports the run's metrics when PUSHGATEWAY_URL is set. A
// short-lived process has no scrape window.
func pushMetrics(cfg config.Config, log *slog.Logger) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pusher := push.New(cfg.Metrics.PushgatewayURL, "trunk_setup").Grouping("trunk_name", cfg.Trunk.Name)
	for _, c := range provision.Collectors() {
		pusher = pusher.Collector(c)
	}
	if err := pusher.PushContext(ctx); err != nil {
		log.Warn("metrics push failed", "err", err)
	}
}
