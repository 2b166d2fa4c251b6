package provision

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

// RoomPrefix is prepended to every call room created by the dispatch rule.
const RoomPrefix = "call-"

// TrunkConfig is the desired provisioning target. TrunkName is the
// idempotency key for the carrier trunk. Immutable for one run.
type TrunkConfig struct {
	TrunkName   string `json:"trunk_name"`
	SIPURI      string `json:"sip_uri"`
	PhoneNumber string `json:"phone_number"`
}

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

// Validate rejects targets the carrier or gateway would refuse anyway.
func (c TrunkConfig) Validate() error {
	var problems []string
	if strings.TrimSpace(c.TrunkName) == "" {
		problems = append(problems, "trunk_name required")
	}
	if strings.TrimSpace(c.SIPURI) == "" {
		problems = append(problems, "sip_uri required")
	}
	if strings.TrimSpace(c.PhoneNumber) == "" {
		problems = append(problems, "phone_number required")
	} else if !e164.MatchString(c.PhoneNumber) {
		problems = append(problems, "phone_number must be E.164")
	}
	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// InboundTrunkName is the gateway-side name for the inbound trunk.
func (c TrunkConfig) InboundTrunkName() string {
	return "Inbound " + c.TrunkName
}

// DispatchRuleName is the gateway-side name for the dispatch rule.
func (c TrunkConfig) DispatchRuleName() string {
	return "Inbound " + c.TrunkName + " Dispatch Rule"
}

// OriginationName is the friendly name of the carrier origination URL.
func (c TrunkConfig) OriginationName() string {
	return c.TrunkName + " SIP URI"
}

// CarrierTrunk is the carrier-side SIP trunk. It is looked up by
// FriendlyName and never deleted by this package.
type CarrierTrunk struct {
	SID          string `json:"sid"`
	FriendlyName string `json:"friendly_name"`
	DomainName   string `json:"domain_name"`
}

// OriginationURL is where the carrier forwards inbound calls.
type OriginationURL struct {
	SIPURL       string
	FriendlyName string
	Weight       int
	Priority     int
	Enabled      bool
}

// InboundTrunkDescriptor is the gateway job for an inbound trunk.
//
//	{"trunk": {"name": "...", "numbers": ["+1..."]}}
type InboundTrunkDescriptor struct {
	Trunk InboundTrunkSpec `json:"trunk"`
}

type InboundTrunkSpec struct {
	Name    string   `json:"name"`
	Numbers []string `json:"numbers"`
}

// DispatchRuleDescriptor is the gateway job for a dispatch rule.
//
//	{"name": "...", "trunk_ids": ["ST_..."], "rule": {"dispatchRuleIndividual": {"roomPrefix": "call-"}}}
type DispatchRuleDescriptor struct {
	Name     string       `json:"name"`
	TrunkIDs []string     `json:"trunk_ids"`
	Rule     DispatchRule `json:"rule"`
}

type DispatchRule struct {
	Individual *IndividualDispatch `json:"dispatchRuleIndividual,omitempty"`
}

// IndividualDispatch creates one room per call.
type IndividualDispatch struct {
	RoomPrefix string `json:"roomPrefix"`
}

// NewInboundTrunkDescriptor builds the inbound trunk job for cfg.
func NewInboundTrunkDescriptor(cfg TrunkConfig) InboundTrunkDescriptor {
	return InboundTrunkDescriptor{Trunk: InboundTrunkSpec{
		Name:    cfg.InboundTrunkName(),
		Numbers: []string{cfg.PhoneNumber},
	}}
}

// NewDispatchRuleDescriptor builds the dispatch rule job routing calls on
// inboundTrunkID into individual rooms.
func NewDispatchRuleDescriptor(cfg TrunkConfig, inboundTrunkID string) DispatchRuleDescriptor {
	return DispatchRuleDescriptor{
		Name:     cfg.DispatchRuleName(),
		TrunkIDs: []string{inboundTrunkID},
		Rule:     DispatchRule{Individual: &IndividualDispatch{RoomPrefix: RoomPrefix}},
	}
}

// Stage is how far a run got.
type Stage int

const (
	StageNone Stage = iota
	StageCarrierOnly
	StageCarrierAndInbound
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageCarrierOnly:
		return "carrier_only"
	case StageCarrierAndInbound:
		return "carrier_and_inbound"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseStage is the inverse of Stage.String.
func ParseStage(v string) (Stage, error) {
	switch v {
	case "none":
		return StageNone, nil
	case "carrier_only":
		return StageCarrierOnly, nil
	case "carrier_and_inbound":
		return StageCarrierAndInbound, nil
	case "complete":
		return StageComplete, nil
	default:
		return StageNone, errors.New("provision: unknown stage " + v)
	}
}

// Result reports per-step progress of one run. It is populated even when
// Provision returns an error.
type Result struct {
	RunID              string        `json:"run_id"`
	Stage              Stage         `json:"stage"`
	CarrierTrunk       CarrierTrunk  `json:"carrier_trunk"`
	CarrierTrunkReused bool          `json:"carrier_trunk_reused"`
	InboundTrunkID     string        `json:"inbound_trunk_id,omitempty"`
	DispatchRuleID     string        `json:"dispatch_rule_id,omitempty"`
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"duration"`
	Err                error         `json:"-"`
}

func (r Result) Complete() bool { return r.Stage == StageComplete }

// CarrierClient is the carrier trunk API the provisioner needs.
type CarrierClient interface {
	ListTrunks(ctx context.Context) ([]CarrierTrunk, error)
	CreateTrunk(ctx context.Context, friendlyName, domainName string) (CarrierTrunk, error)
	AddOriginationURL(ctx context.Context, trunkSID string, u OriginationURL) error
}

// Gateway creates inbound trunks and dispatch rules on the SIP media gateway.
// CreateInboundTrunk returns the gateway's trunk identifier (ST_...).
// CreateDispatchRule returns the rule identifier when the gateway reports one.
type Gateway interface {
	CreateInboundTrunk(ctx context.Context, d InboundTrunkDescriptor) (string, error)
	CreateDispatchRule(ctx context.Context, d DispatchRuleDescriptor) (string, error)
}

// Locker serializes runs for the same trunk name. Acquire returns ErrBusy
// when another run holds the name.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Recorder persists run outcomes. Recording is best-effort.
type Recorder interface {
	RecordRun(ctx context.Context, cfg TrunkConfig, res Result) error
}
