package audit

import "time"

// Run is an immutable, append-only record of one provisioning run.
//
// Invariants:
// - Runs are never updated or deleted.
// - trunk_name is required; it is the provisioning idempotency key.
// - Recording is best-effort; a failed insert never changes a run's outcome.
//
// Storage (Postgres): table provisioning_runs, INSERT-only.
type Run struct {
	ID        string `json:"id" db:"id"`
	TrunkName string `json:"trunk_name" db:"trunk_name"`

	PhoneNumber string `json:"phone_number" db:"phone_number"`
	SIPURI      string `json:"sip_uri" db:"sip_uri"`

	// Stage is the provision.Stage string reached by the run.
	Stage string `json:"stage" db:"stage"`

	CarrierTrunkSID    string `json:"carrier_trunk_sid,omitempty" db:"carrier_trunk_sid"`
	CarrierDomain      string `json:"carrier_domain,omitempty" db:"carrier_domain"`
	CarrierTrunkReused bool   `json:"carrier_trunk_reused" db:"carrier_trunk_reused"`
	InboundTrunkID     string `json:"inbound_trunk_id,omitempty" db:"inbound_trunk_id"`
	DispatchRuleID     string `json:"dispatch_rule_id,omitempty" db:"dispatch_rule_id"`

	// Error is the failure message when the run did not complete.
	Error string `json:"error,omitempty" db:"error"`

	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
