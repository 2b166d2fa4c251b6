package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"agent-platform/internal/workflow"
	"agent-platform/pkg/logger"
)

// ErrNotReady is returned when the vector database reports it is not ready.
var ErrNotReady = errors.New("catalog: weaviate is not ready")

// LookupError describes a failed sales lookup.
type LookupError struct {
	Query string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup_sales(%q): %v", e.Query, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

type Service struct {
	store  Store
	items  []SalesItem
	Logger *slog.Logger
}

// NewService serves the default seed items.
func NewService(store Store) *Service {
	return &Service{store: store, items: DefaultItems()}
}

// WithItems replaces the seed items.
func (s *Service) WithItems(items []SalesItem) *Service {
	s.items = items
	return s
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logger.From(ctx)
}

// Seed creates the SalesItem class when missing and loads the seed items.
// It returns the number of objects written.
func (s *Service) Seed(ctx context.Context) (int, error) {
	created, err := s.store.EnsureSchema(ctx)
	if err != nil {
		return 0, err
	}
	if created {
		s.log(ctx).Info("catalog schema created", "class", ClassName)
	} else {
		s.log(ctx).Info("catalog schema exists", "class", ClassName)
	}

	n, err := s.store.Upsert(ctx, s.items)
	catalogSeededCounter.Add(float64(n))
	if err != nil {
		return n, err
	}
	s.log(ctx).Info("catalog seeded", "items", n)
	return n, nil
}

// Lookup returns up to DefaultLimit items. An empty query lists the catalog,
// anything else is a nearText search. Failures are non-retryable.
func (s *Service) Lookup(ctx context.Context, query string) ([]SalesItem, error) {
	mode := modeNearText
	if query == "" {
		mode = modeList
	}

	ready, err := s.store.Ready(ctx)
	if err == nil && !ready {
		err = ErrNotReady
	}
	if err != nil {
		catalogLookupsCounter.WithLabelValues(mode, "not_ready").Inc()
		return nil, s.fail(ctx, query, err)
	}

	items, err := s.store.Search(ctx, SearchRequest{Query: query, Limit: DefaultLimit})
	if err != nil {
		catalogLookupsCounter.WithLabelValues(mode, "error").Inc()
		return nil, s.fail(ctx, query, err)
	}
	catalogLookupsCounter.WithLabelValues(mode, "ok").Inc()
	s.log(ctx).Info("catalog lookup", "mode", mode, "query", query, "results", len(items))
	return items, nil
}

func (s *Service) fail(ctx context.Context, query string, err error) error {
	s.log(ctx).Error("catalog lookup failed", "query", query, "err", err)
	return workflow.NonRetryable("catalog lookup failed", &LookupError{Query: query, Err: err})
}
