package utils

import (
	"context"
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	if c.MaxOpenConns != 4 || c.MaxIdleConns != 2 || c.PingTimeout != 3*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestPostgresPoolConfig_IdleNeverExceedsOpen(t *testing.T) {
	c := PostgresPoolConfig{MaxOpenConns: 1, MaxIdleConns: 10}.withDefaults()
	if c.MaxOpenConns != 1 || c.MaxIdleConns != 1 {
		t.Fatalf("unexpected pool: %+v", c)
	}
}

func TestWithTx_NilDB(t *testing.T) {
	if err := ApplySchema(context.Background(), nil, "SELECT 1"); err == nil {
		t.Fatalf("expected error for nil db")
	}
}
