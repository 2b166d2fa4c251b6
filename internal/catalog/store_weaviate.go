package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"agent-platform/internal/config"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const vectorizer = "text2vec-openai"

// WeaviateStore implements Store over the Weaviate REST and GraphQL APIs.
type WeaviateStore struct {
	client    *weaviate.Client
	batchSize int
}

func NewWeaviateStore(cfg config.CatalogConfig) (*WeaviateStore, error) {
	scheme, host, err := splitURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	wc := weaviate.Config{Scheme: scheme, Host: host}
	if cfg.APIKey != "" {
		wc.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	client, err := weaviate.NewClient(wc)
	if err != nil {
		return nil, fmt.Errorf("catalog: weaviate client: %w", err)
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &WeaviateStore{client: client, batchSize: batch}, nil
}

func splitURL(raw string) (string, string, error) {
	if raw == "" {
		raw = "http://localhost:8080"
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("catalog: invalid WEAVIATE_URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("catalog: invalid WEAVIATE_URL %q: missing host", raw)
	}
	return u.Scheme, u.Host, nil
}

func (s *WeaviateStore) Ready(ctx context.Context) (bool, error) {
	return s.client.Misc().ReadyChecker().Do(ctx)
}

// EnsureSchema creates the SalesItem class unless it already exists.
func (s *WeaviateStore) EnsureSchema(ctx context.Context) (bool, error) {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(ClassName).Do(ctx)
	if err != nil {
		return false, fmt.Errorf("catalog: check class %s: %w", ClassName, err)
	}
	if exists {
		return false, nil
	}
	if err := s.client.Schema().ClassCreator().WithClass(SalesItemClass()).Do(ctx); err != nil {
		return false, fmt.Errorf("catalog: create class %s: %w", ClassName, err)
	}
	return true, nil
}

// SalesItemClass is the schema of the catalog class.
func SalesItemClass() *models.Class {
	return &models.Class{
		Class:       ClassName,
		Description: "Discounted items on sale",
		Vectorizer:  vectorizer,
		ModuleConfig: map[string]any{
			vectorizer: map[string]any{
				"model":              "ada",
				"modelVersion":       "002",
				"type":               "text",
				"vectorizeClassName": true,
			},
		},
		Properties: []*models.Property{
			{Name: "item_id", DataType: []string{"int"}},
			{Name: "type", DataType: []string{"text"}},
			{Name: "name", DataType: []string{"text"}},
			{Name: "retail_price_usd", DataType: []string{"number"}},
			{Name: "sale_price_usd", DataType: []string{"number"}},
			{Name: "sale_discount_pct", DataType: []string{"int"}},
		},
	}
}

func toObject(item SalesItem) *models.Object {
	return &models.Object{
		Class:      ClassName,
		ID:         strfmt.UUID(ObjectID(item.ItemID).String()),
		Properties: item.Properties(),
	}
}

// Upsert writes items in batches of batchSize. Objects rejected inside an
// accepted batch are reported together after all batches ran.
func (s *WeaviateStore) Upsert(ctx context.Context, items []SalesItem) (int, error) {
	written := 0
	var objErrs []error
	for start := 0; start < len(items); start += s.batchSize {
		end := min(start+s.batchSize, len(items))
		objs := make([]*models.Object, 0, end-start)
		for _, it := range items[start:end] {
			objs = append(objs, toObject(it))
		}
		resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
		if err != nil {
			return written, fmt.Errorf("catalog: batch %d-%d: %w", start, end, err)
		}
		ok, errs := batchOutcome(resp)
		written += ok
		objErrs = append(objErrs, errs...)
	}
	if len(objErrs) > 0 {
		return written, fmt.Errorf("catalog: %d objects rejected: %w", len(objErrs), errors.Join(objErrs...))
	}
	return written, nil
}

func batchOutcome(resp []models.ObjectsGetResponse) (int, []error) {
	ok := 0
	var errs []error
	for _, r := range resp {
		if r.Result == nil || r.Result.Errors == nil || len(r.Result.Errors.Error) == 0 {
			ok++
			continue
		}
		for _, e := range r.Result.Errors.Error {
			if e == nil {
				continue
			}
			errs = append(errs, fmt.Errorf("object %s: %s", r.ID, e.Message))
		}
	}
	return ok, errs
}

func (s *WeaviateStore) Search(ctx context.Context, req SearchRequest) ([]SalesItem, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	fields := []graphql.Field{
		{Name: "item_id"},
		{Name: "type"},
		{Name: "name"},
		{Name: "retail_price_usd"},
		{Name: "sale_price_usd"},
		{Name: "sale_discount_pct"},
	}
	get := s.client.GraphQL().Get().WithClassName(ClassName).WithLimit(limit)
	if req.Query != "" {
		fields = append(fields, graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}})
		get = get.WithNearText(s.client.GraphQL().NearTextArgBuilder().WithConcepts([]string{req.Query}))
	}
	resp, err := get.WithFields(fields...).Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			if e != nil {
				msgs = append(msgs, e.Message)
			}
		}
		return nil, fmt.Errorf("catalog: graphql: %s", strings.Join(msgs, "; "))
	}
	return decodeItems(resp.Data)
}

// decodeItems reads Get.SalesItem rows out of a GraphQL response.
func decodeItems(data map[string]models.JSONObject) ([]SalesItem, error) {
	get, ok := data["Get"].(map[string]any)
	if !ok {
		return nil, errors.New("catalog: graphql response has no Get section")
	}
	raw, ok := get[ClassName]
	if !ok || raw == nil {
		return []SalesItem{}, nil
	}
	rows, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("catalog: unexpected %s payload %T", ClassName, raw)
	}
	items := make([]SalesItem, 0, len(rows))
	for _, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		item := SalesItem{
			ItemID:          toInt(m["item_id"]),
			Type:            toString(m["type"]),
			Name:            toString(m["name"]),
			RetailPriceUSD:  toFloat(m["retail_price_usd"]),
			SalePriceUSD:    toFloat(m["sale_price_usd"]),
			SaleDiscountPct: toInt(m["sale_discount_pct"]),
		}
		if add, ok := m["_additional"].(map[string]any); ok {
			if c, ok := add["certainty"]; ok && c != nil {
				v := toFloat(c)
				item.Certainty = &v
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func toInt(v any) int {
	return int(toFloat(v))
}
