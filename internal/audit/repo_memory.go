package audit

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory append-only repository. Used in tests and when
// no database is configured.
type MemoryRepo struct {
	mu   sync.Mutex
	runs []Run
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

// List returns the newest runs first, optionally filtered by trunk name.
func (r *MemoryRepo) List(ctx context.Context, trunkName string, limit int) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Run, 0, len(r.runs))
	for i := len(r.runs) - 1; i >= 0; i-- {
		if trunkName != "" && r.runs[i].TrunkName != trunkName {
			continue
		}
		out = append(out, r.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
