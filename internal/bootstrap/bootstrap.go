// Package bootstrap builds the shared runtime graph for the binaries:
// optional Postgres and Redis handles, the provisioner and its collaborators.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"agent-platform/internal/audit"
	"agent-platform/internal/config"
	"agent-platform/internal/lock"
	"agent-platform/internal/provision"
	"agent-platform/internal/sipgateway"
	"agent-platform/internal/telephony"
	"agent-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Stores holds the optional backing services. Nil fields are not configured.
type Stores struct {
	DB    *sql.DB
	Redis *redis.Client
}

// OpenStores connects to Postgres and Redis when they are configured.
func OpenStores(ctx context.Context, cfg config.Config, log *slog.Logger) (Stores, error) {
	var s Stores
	if cfg.DBEnabled() {
		db, err := utils.OpenPostgres(ctx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			return Stores{}, fmt.Errorf("postgres: %w", err)
		}
		s.DB = db
		log.Info("postgres connected", "host", cfg.DB.Host, "db", cfg.DB.Name)
	}
	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			s.Close()
			return Stores{}, fmt.Errorf("redis: %w", err)
		}
		s.Redis = rdb
		log.Info("redis connected", "addr", cfg.RedisAddr())
	}
	return s, nil
}

func (s Stores) Close() {
	if s.DB != nil {
		_ = s.DB.Close()
	}
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
}

// RunHistory returns the audit service over Postgres, or over memory when
// no database is configured.
func RunHistory(ctx context.Context, s Stores) (*audit.Service, error) {
	if s.DB == nil {
		return audit.NewService(audit.NewMemoryRepo()), nil
	}
	repo := audit.NewPostgresRepo(s.DB)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	return audit.NewService(repo), nil
}

// Provisioner wires the Twilio carrier adapter and the configured gateway
// adapter. Runs are locked through Redis when it is available and in memory
// otherwise.
func Provisioner(cfg config.Config, s Stores, history provision.Recorder, log *slog.Logger) (*provision.Provisioner, error) {
	carrier, err := telephony.NewTwilioTrunking(cfg.Carrier)
	if err != nil {
		return nil, err
	}
	return newProvisioner(cfg, carrier, s, history, log)
}

func newProvisioner(cfg config.Config, carrier telephony.TrunkingProvider, s Stores, history provision.Recorder, log *slog.Logger) (*provision.Provisioner, error) {
	gateway, err := sipgateway.New(cfg.Gateway)
	if err != nil {
		return nil, err
	}

	p := provision.NewProvisioner(carrier, gateway)
	p.Logger = log
	p.Recorder = history
	if s.Redis != nil {
		p.Locker = lock.NewRedisLocker(s.Redis, 0, log)
	} else {
		p.Locker = lock.NewLocalLocker()
	}
	return p, nil
}

// CheckCarrier verifies the carrier credentials. A failure is logged and
// returned; callers decide whether it is fatal.
func CheckCarrier(ctx context.Context, carrier telephony.TrunkingProvider, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := carrier.HealthCheck(ctx); err != nil {
		log.Warn("carrier health check failed", "carrier", carrier.Name(), "err", err)
		return err
	}
	log.Info("carrier reachable", "carrier", carrier.Name())
	return nil
}

// TrunkConfig converts the loaded configuration into a provisioning target.
func TrunkConfig(cfg config.Config) provision.TrunkConfig {
	return provision.TrunkConfig{
		TrunkName:   cfg.Trunk.Name,
		SIPURI:      cfg.Trunk.SIPURI,
		PhoneNumber: cfg.Trunk.PhoneNumber,
	}
}
