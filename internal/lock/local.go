package lock

import (
	"context"
	"sync"

	"agent-platform/internal/provision"
)

// LocalLocker implements provision.Locker within one process. It is used when
// Redis is not configured; a held name fails fast with provision.ErrBusy the
// same way RedisLocker does.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Acquire(ctx context.Context, trunkName string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[trunkName]; ok {
		return nil, provision.ErrBusy
	}
	l.held[trunkName] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, trunkName)
			l.mu.Unlock()
		})
	}, nil
}
