package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"agent-platform/internal/provision"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CARRIER_ACCOUNT_SID", "CARRIER_AUTH_TOKEN", "CARRIER_PHONE_NUMBER",
		"SIP_ENDPOINT_URI", "TRUNK_NAME", "SIP_GATEWAY_MODE",
		"DB_HOST", "REDIS_HOST", "PUSHGATEWAY_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestRun_MissingConfigurationExitsBeforeNetwork(t *testing.T) {
	clearEnv(t)
	t.Setenv("CARRIER_ACCOUNT_SID", "AC123")
	t.Setenv("TRUNK_NAME", "Acme")

	var out bytes.Buffer
	code := run(context.Background(), &out)
	if code != exitConfig {
		t.Fatalf("expected exit %d, got %d", exitConfig, code)
	}
	logs := out.String()
	for _, key := range []string{"CARRIER_AUTH_TOKEN", "CARRIER_PHONE_NUMBER", "SIP_ENDPOINT_URI"} {
		if !strings.Contains(logs, `"key":"`+key+`"`) {
			t.Fatalf("expected %s to be reported, logs:\n%s", key, logs)
		}
	}
	if strings.Contains(logs, `"key":"TRUNK_NAME"`) {
		t.Fatalf("TRUNK_NAME is set and must not be reported")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"complete", nil, exitComplete},
		{"busy", provision.ErrBusy, exitBusy},
		{"invalid", &provision.ConfigError{Problems: []string{"phone_number must be E.164"}}, exitConfig},
		{"carrier", &provision.CarrierError{Op: "create trunk", Err: errors.New("403")}, exitCarrier},
		{"gateway", &provision.GatewayError{Op: "create inbound trunk", Err: errors.New("exit 1")}, exitIncomplete},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}
