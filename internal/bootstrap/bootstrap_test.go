package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"agent-platform/internal/config"
	"agent-platform/internal/lock"
	"agent-platform/internal/provision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestOpenStores_NothingConfigured(t *testing.T) {
	s, err := OpenStores(context.Background(), config.Config{}, discard())
	require.NoError(t, err)
	assert.Nil(t, s.DB)
	assert.Nil(t, s.Redis)
	s.Close()
}

func TestRunHistory_FallsBackToMemory(t *testing.T) {
	h, err := RunHistory(context.Background(), Stores{})
	require.NoError(t, err)
	require.NotNil(t, h)
}

func TestProvisioner_WiresAdapters(t *testing.T) {
	cfg := config.Config{
		Carrier: config.CarrierConfig{AccountSID: "AC123", AuthToken: "secret"},
		Gateway: config.GatewayConfig{Mode: config.GatewayModeCLI, Binary: "lk", WorkDir: t.TempDir()},
	}
	p, err := Provisioner(cfg, Stores{}, nil, discard())
	require.NoError(t, err)
	assert.IsType(t, &lock.LocalLocker{}, p.Locker, "in-process lock without redis")
}

func TestProvisioner_RejectsBadGateway(t *testing.T) {
	cfg := config.Config{
		Carrier: config.CarrierConfig{AccountSID: "AC123", AuthToken: "secret"},
		Gateway: config.GatewayConfig{Mode: config.GatewayModeAPI},
	}
	_, err := Provisioner(cfg, Stores{}, nil, discard())
	assert.Error(t, err, "api mode needs livekit credentials")
}

func TestTrunkConfig(t *testing.T) {
	cfg := config.Config{Trunk: config.TrunkConfig{Name: "Acme", SIPURI: "sip:a@b", PhoneNumber: "+15551234567"}}
	got := TrunkConfig(cfg)
	assert.Equal(t, "Acme", got.TrunkName)
	assert.Equal(t, "sip:a@b", got.SIPURI)
	assert.Equal(t, "+15551234567", got.PhoneNumber)
}

type stubCarrier struct {
	healthErr error
}

func (s stubCarrier) Name() string                          { return "stub" }
func (s stubCarrier) HealthCheck(ctx context.Context) error { return s.healthErr }

func (s stubCarrier) ListTrunks(ctx context.Context) ([]provision.CarrierTrunk, error) {
	return nil, nil
}

func (s stubCarrier) CreateTrunk(ctx context.Context, friendlyName, domainName string) (provision.CarrierTrunk, error) {
	return provision.CarrierTrunk{}, nil
}

func (s stubCarrier) AddOriginationURL(ctx context.Context, trunkSID string, u provision.OriginationURL) error {
	return nil
}

func TestCheckCarrier(t *testing.T) {
	assert.NoError(t, CheckCarrier(context.Background(), stubCarrier{}, discard()))

	err := CheckCarrier(context.Background(), stubCarrier{healthErr: errors.New("401 unauthorized")}, discard())
	assert.EqualError(t, err, "401 unauthorized")
}

func TestNewProvisioner_UsesGivenCarrier(t *testing.T) {
	cfg := config.Config{Gateway: config.GatewayConfig{Mode: config.GatewayModeCLI}}
	p, err := newProvisioner(cfg, stubCarrier{}, Stores{}, nil, discard())
	require.NoError(t, err)
	require.NotNil(t, p)
}
