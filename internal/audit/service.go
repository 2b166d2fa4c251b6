package audit

import (
	"context"
	"errors"
	"time"

	"agent-platform/internal/provision"

	"github.com/google/uuid"
)

// Repository is the persistence contract for run history.
//
// It MUST be append-only.
// No Update/Delete methods are provided.
type Repository interface {
	Append(ctx context.Context, run Run) error
	List(ctx context.Context, trunkName string, limit int) ([]Run, error)
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Service records provisioning runs. It implements provision.Recorder.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidRun = errors.New("audit: invalid run")

func (s *Service) Append(ctx context.Context, run Run) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if run.TrunkName == "" || run.Stage == "" {
		return ErrInvalidRun
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, run)
}

// RecordRun converts a provisioning result into a Run.
func (s *Service) RecordRun(ctx context.Context, cfg provision.TrunkConfig, res provision.Result) error {
	run := Run{
		ID:                 res.RunID,
		TrunkName:          cfg.TrunkName,
		PhoneNumber:        cfg.PhoneNumber,
		SIPURI:             cfg.SIPURI,
		Stage:              res.Stage.String(),
		CarrierTrunkSID:    res.CarrierTrunk.SID,
		CarrierDomain:      res.CarrierTrunk.DomainName,
		CarrierTrunkReused: res.CarrierTrunkReused,
		InboundTrunkID:     res.InboundTrunkID,
		DispatchRuleID:     res.DispatchRuleID,
		DurationMS:         res.Duration.Milliseconds(),
		CreatedAt:          res.StartedAt,
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	return s.Append(ctx, run)
}

// List returns recent runs, newest first. limit is clamped to [1, 500].
func (s *Service) List(ctx context.Context, trunkName string, limit int) ([]Run, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.List(ctx, trunkName, limit)
}
