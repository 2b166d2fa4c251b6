// Package telephony holds the carrier adapters used by provisioning.
//
// Rules:
//   - No carrier SDK calls outside this package.
//   - Adapters translate carrier payloads into provision types and return
//     carrier errors unchanged, apart from conflict mapping.
package telephony

import (
	"context"

	"agent-platform/internal/provision"
)

// TrunkingProvider is a carrier that can host Elastic SIP trunks.
type TrunkingProvider interface {
	provision.CarrierClient

	Name() string
	HealthCheck(ctx context.Context) error
}

var _ TrunkingProvider = (*TwilioTrunking)(nil)
