package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agent-platform/pkg/logger"

	"github.com/google/uuid"
)

// Provisioner wires a carrier trunk to the SIP gateway:
//
//  1. resolve the carrier trunk by friendly name, or create it and attach
//     the origination URL
//  2. create the gateway inbound trunk for the phone number
//  3. create the dispatch rule for that inbound trunk
//
// Every step is a single synchronous call with no retry. Any failure ends the
// run; nothing is rolled back. Only step 1 is idempotent: steps 2 and 3 create
// new gateway resources on every run.
type Provisioner struct {
	carrier CarrierClient
	gateway Gateway

	Domains  DomainGenerator
	Locker   Locker
	Recorder Recorder
	Logger   *slog.Logger

	clock func() time.Time
	newID func() string
}

func NewProvisioner(carrier CarrierClient, gateway Gateway) *Provisioner {
	return &Provisioner{
		carrier: carrier,
		gateway: gateway,
		Domains: RandomDomain,
		clock:   time.Now,
		newID:   uuid.NewString,
	}
}

// Provision runs the three steps for cfg. The returned Result always carries
// the stage reached; err is non-nil whenever the stage is not StageComplete.
// Carrier failures are *CarrierError, gateway failures are *GatewayError.
func (p *Provisioner) Provision(ctx context.Context, cfg TrunkConfig) (Result, error) {
	res := Result{RunID: p.newID(), StartedAt: p.clock().UTC()}
	log := p.log(ctx).With("run_id", res.RunID, "trunk_name", cfg.TrunkName)

	if p.carrier == nil || p.gateway == nil {
		res.Err = errors.New("provision: carrier and gateway are required")
		return res, res.Err
	}
	if err := cfg.Validate(); err != nil {
		res.Err = err
		return res, err
	}

	if p.Locker != nil {
		release, err := p.Locker.Acquire(ctx, cfg.TrunkName)
		if err != nil {
			log.Warn("provisioning lock not acquired", "err", err)
			res.Err = err
			return res, err
		}
		defer release()
	}

	res, err := p.run(ctx, log, cfg, res)
	res.Duration = p.clock().Sub(res.StartedAt)
	res.Err = err

	provisionRunsCounter.WithLabelValues(res.Stage.String()).Inc()
	provisionDurationHist.Observe(res.Duration.Seconds())

	if p.Recorder != nil {
		if rerr := p.Recorder.RecordRun(ctx, cfg, res); rerr != nil {
			log.Warn("provisioning run not recorded", "err", rerr)
		}
	}

	if err != nil {
		log.Error("provisioning incomplete", "stage", res.Stage.String(), "err", err)
		return res, err
	}
	log.Info("provisioning complete",
		"carrier_trunk_sid", res.CarrierTrunk.SID,
		"inbound_trunk_id", res.InboundTrunkID,
		"dispatch_rule_id", res.DispatchRuleID,
	)
	return res, nil
}

func (p *Provisioner) run(ctx context.Context, log *slog.Logger, cfg TrunkConfig, res Result) (Result, error) {
	trunk, reused, err := p.resolveCarrierTrunk(ctx, log, cfg)
	if err != nil {
		provisionStepsCounter.WithLabelValues(stepCarrierTrunk, "error").Inc()
		provisionStepsCounter.WithLabelValues(stepInboundTrunk, "skipped").Inc()
		provisionStepsCounter.WithLabelValues(stepDispatchRule, "skipped").Inc()
		return res, err
	}
	res.CarrierTrunk = trunk
	res.CarrierTrunkReused = reused
	res.Stage = StageCarrierOnly
	if reused {
		provisionStepsCounter.WithLabelValues(stepCarrierTrunk, "reused").Inc()
	} else {
		provisionStepsCounter.WithLabelValues(stepCarrierTrunk, "created").Inc()
	}

	inboundID, err := p.gateway.CreateInboundTrunk(ctx, NewInboundTrunkDescriptor(cfg))
	if err == nil && inboundID == "" {
		err = ErrIdentifierNotFound
	}
	if err != nil {
		provisionStepsCounter.WithLabelValues(stepInboundTrunk, "error").Inc()
		provisionStepsCounter.WithLabelValues(stepDispatchRule, "skipped").Inc()
		return res, &GatewayError{Op: "create inbound trunk", Err: err}
	}
	res.InboundTrunkID = inboundID
	res.Stage = StageCarrierAndInbound
	provisionStepsCounter.WithLabelValues(stepInboundTrunk, "created").Inc()
	log.Info("created inbound trunk", "inbound_trunk_id", inboundID)

	ruleID, err := p.gateway.CreateDispatchRule(ctx, NewDispatchRuleDescriptor(cfg, inboundID))
	if err != nil {
		provisionStepsCounter.WithLabelValues(stepDispatchRule, "error").Inc()
		return res, &GatewayError{Op: "create dispatch rule", Err: err}
	}
	res.DispatchRuleID = ruleID
	res.Stage = StageComplete
	provisionStepsCounter.WithLabelValues(stepDispatchRule, "created").Inc()
	log.Info("created dispatch rule", "dispatch_rule_id", ruleID)
	return res, nil
}

// resolveCarrierTrunk reuses the trunk whose FriendlyName equals
// cfg.TrunkName exactly, or creates one. The origination URL is attached
// only after creation succeeded.
func (p *Provisioner) resolveCarrierTrunk(ctx context.Context, log *slog.Logger, cfg TrunkConfig) (CarrierTrunk, bool, error) {
	trunks, err := p.carrier.ListTrunks(ctx)
	if err != nil {
		return CarrierTrunk{}, false, &CarrierError{Op: "list trunks", Err: err}
	}
	for _, t := range trunks {
		if t.FriendlyName == cfg.TrunkName {
			log.Info("carrier trunk already exists, reusing it", "carrier_trunk_sid", t.SID)
			return t, true, nil
		}
	}

	domain, err := p.Domains()
	if err != nil {
		return CarrierTrunk{}, false, &CarrierError{Op: "generate domain", Err: err}
	}
	trunk, err := p.carrier.CreateTrunk(ctx, cfg.TrunkName, domain)
	if err != nil {
		return CarrierTrunk{}, false, &CarrierError{Op: "create trunk", Err: fmt.Errorf("domain %s: %w", domain, err)}
	}
	if trunk.DomainName == "" {
		trunk.DomainName = domain
	}
	if trunk.FriendlyName == "" {
		trunk.FriendlyName = cfg.TrunkName
	}

	err = p.carrier.AddOriginationURL(ctx, trunk.SID, OriginationURL{
		SIPURL:       cfg.SIPURI,
		FriendlyName: cfg.OriginationName(),
		Weight:       1,
		Priority:     1,
		Enabled:      true,
	})
	if err != nil {
		return CarrierTrunk{}, false, &CarrierError{Op: "add origination url", Err: err}
	}
	log.Info("created carrier trunk", "carrier_trunk_sid", trunk.SID, "domain", trunk.DomainName)
	return trunk, false, nil
}

func (p *Provisioner) log(ctx context.Context) *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return logger.From(ctx)
}
