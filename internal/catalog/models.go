// Package catalog owns the discounted-sales catalog kept in Weaviate: the
// SalesItem class, the seed data and the semantic lookup used by agents.
package catalog

import (
	"context"
	"strconv"

	"github.com/google/uuid"
)

const (
	ClassName    = "SalesItem"
	DefaultLimit = 10
)

// SalesItem is one discounted product. Certainty is only set on nearText
// results.
type SalesItem struct {
	ItemID          int      `json:"item_id"`
	Type            string   `json:"type"`
	Name            string   `json:"name"`
	RetailPriceUSD  float64  `json:"retail_price_usd"`
	SalePriceUSD    float64  `json:"sale_price_usd"`
	SaleDiscountPct int      `json:"sale_discount_pct"`
	Certainty       *float64 `json:"certainty,omitempty"`
}

// Properties returns the item as a Weaviate property map.
func (i SalesItem) Properties() map[string]any {
	return map[string]any{
		"item_id":           i.ItemID,
		"type":              i.Type,
		"name":              i.Name,
		"retail_price_usd":  i.RetailPriceUSD,
		"sale_price_usd":    i.SalePriceUSD,
		"sale_discount_pct": i.SaleDiscountPct,
	}
}

var objectNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("agent-platform/catalog/"+ClassName))

// ObjectID is stable per item id, so reloading the catalog overwrites
// objects instead of duplicating them.
func ObjectID(itemID int) uuid.UUID {
	return uuid.NewSHA1(objectNamespace, []byte(strconv.Itoa(itemID)))
}

// SearchRequest selects items. An empty Query lists items without ranking.
type SearchRequest struct {
	Query string
	Limit int
}

// Store is the vector database behind the catalog.
type Store interface {
	Ready(ctx context.Context) (bool, error)
	EnsureSchema(ctx context.Context) (created bool, err error)
	Upsert(ctx context.Context, items []SalesItem) (int, error)
	Search(ctx context.Context, req SearchRequest) ([]SalesItem, error)
}

// DefaultItems is the winter-sports seed catalog.
func DefaultItems() []SalesItem {
	return []SalesItem{
		{ItemID: 101, Type: "snowboard", Name: "Alpine Blade", RetailPriceUSD: 450, SalePriceUSD: 360, SaleDiscountPct: 20},
		{ItemID: 102, Type: "snowboard", Name: "Peak Bomber", RetailPriceUSD: 499, SalePriceUSD: 374, SaleDiscountPct: 25},
		{ItemID: 201, Type: "apparel", Name: "Thermal Jacket", RetailPriceUSD: 120, SalePriceUSD: 84, SaleDiscountPct: 30},
		{ItemID: 202, Type: "apparel", Name: "Insulated Pants", RetailPriceUSD: 150, SalePriceUSD: 112, SaleDiscountPct: 25},
		{ItemID: 301, Type: "boots", Name: "Glacier Grip", RetailPriceUSD: 250, SalePriceUSD: 200, SaleDiscountPct: 20},
		{ItemID: 302, Type: "boots", Name: "Summit Steps", RetailPriceUSD: 300, SalePriceUSD: 210, SaleDiscountPct: 30},
		{ItemID: 401, Type: "accessories", Name: "Goggles", RetailPriceUSD: 80, SalePriceUSD: 60, SaleDiscountPct: 25},
		{ItemID: 402, Type: "accessories", Name: "Warm Gloves", RetailPriceUSD: 60, SalePriceUSD: 48, SaleDiscountPct: 20},
	}
}
