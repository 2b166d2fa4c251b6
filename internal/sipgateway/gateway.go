package sipgateway

import (
	"fmt"

	"agent-platform/internal/config"
	"agent-platform/internal/provision"
)

// New returns the gateway adapter selected by cfg.Mode.
func New(cfg config.GatewayConfig) (provision.Gateway, error) {
	switch cfg.Mode {
	case config.GatewayModeCLI, "":
		return NewCLI(cfg.Binary, cfg.WorkDir), nil
	case config.GatewayModeAPI:
		api, err := NewAPI(cfg)
		if err != nil {
			return nil, err
		}
		return api, nil
	default:
		return nil, fmt.Errorf("sipgateway: unknown mode %q", cfg.Mode)
	}
}
