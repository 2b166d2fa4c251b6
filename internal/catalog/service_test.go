package catalog

import (
	"context"
	"errors"
	"testing"

	"agent-platform/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	ready      bool
	readyErr   error
	hasSchema  bool
	schemaErr  error
	upsertErr  error
	searchErr  error
	objects    map[string]SalesItem
	lastSearch SearchRequest
}

func newFakeStore() *fakeStore {
	return &fakeStore{ready: true, objects: map[string]SalesItem{}}
}

func (f *fakeStore) Ready(ctx context.Context) (bool, error) { return f.ready, f.readyErr }

func (f *fakeStore) EnsureSchema(ctx context.Context) (bool, error) {
	if f.schemaErr != nil {
		return false, f.schemaErr
	}
	if f.hasSchema {
		return false, nil
	}
	f.hasSchema = true
	return true, nil
}

func (f *fakeStore) Upsert(ctx context.Context, items []SalesItem) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	for _, it := range items {
		f.objects[ObjectID(it.ItemID).String()] = it
	}
	return len(items), nil
}

func (f *fakeStore) Search(ctx context.Context, req SearchRequest) ([]SalesItem, error) {
	f.lastSearch = req
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := make([]SalesItem, 0, len(f.objects))
	for _, it := range f.objects {
		out = append(out, it)
	}
	return out, nil
}

func TestSeed_IsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	n, err := svc.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = svc.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Len(t, store.objects, 8, "reloading must overwrite, not duplicate")
}

func TestSeed_SchemaFailureStopsLoad(t *testing.T) {
	store := newFakeStore()
	store.schemaErr = errors.New("unauthorized")

	_, err := NewService(store).Seed(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.objects)
}

func TestLookup_EmptyQueryLists(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	_, err := svc.Seed(context.Background())
	require.NoError(t, err)

	items, err := svc.Lookup(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, items, 8)
	assert.Equal(t, SearchRequest{Query: "", Limit: DefaultLimit}, store.lastSearch)
}

func TestLookup_PassesQuery(t *testing.T) {
	store := newFakeStore()
	_, err := NewService(store).Lookup(context.Background(), "warm jacket")
	require.NoError(t, err)
	assert.Equal(t, "warm jacket", store.lastSearch.Query)
	assert.Equal(t, 10, store.lastSearch.Limit)
}

func TestLookup_NotReadyIsNonRetryable(t *testing.T) {
	store := newFakeStore()
	store.ready = false

	_, err := NewService(store).Lookup(context.Background(), "boots")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.False(t, workflow.IsRetryable(err))

	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "boots", le.Query)
}

func TestLookup_SearchFailureIsNonRetryable(t *testing.T) {
	store := newFakeStore()
	store.searchErr = errors.New("graphql: no such class")

	_, err := NewService(store).Lookup(context.Background(), "")
	require.Error(t, err)
	assert.False(t, workflow.IsRetryable(err))
	assert.Contains(t, err.Error(), "no such class")
}

func TestObjectID_Deterministic(t *testing.T) {
	assert.Equal(t, ObjectID(101), ObjectID(101))
	assert.NotEqual(t, ObjectID(101), ObjectID(102))
}

func TestDefaultItems(t *testing.T) {
	items := DefaultItems()
	require.Len(t, items, 8)
	seen := map[int]bool{}
	for _, it := range items {
		assert.False(t, seen[it.ItemID], "duplicate item id %d", it.ItemID)
		seen[it.ItemID] = true
		assert.Less(t, it.SalePriceUSD, it.RetailPriceUSD, it.Name)
	}
	assert.Equal(t, SalesItem{ItemID: 101, Type: "snowboard", Name: "Alpine Blade", RetailPriceUSD: 450, SalePriceUSD: 360, SaleDiscountPct: 20}, items[0])
}
