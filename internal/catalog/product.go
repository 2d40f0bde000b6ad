// Package catalog defines the product, history and favorite records shared
// by the store, the ranking engine and the HTTP layer.
package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/levutuan/tragia/internal/vntext"
)

// DefaultUnit is the sale unit assumed when none is given ("piece").
const DefaultUnit = "Cái"

// Prices holds the two price points tracked per product, in đồng.
type Prices struct {
	Retail    float64 `json:"retail"`
	Wholesale float64 `json:"wholesale"`
}

// Product is the catalog entity. ID is an opaque UUID assigned at creation;
// Barcode is an optional natural key, unique when present.
type Product struct {
	ID         string `json:"id"`
	Barcode    string `json:"barcode,omitempty"`
	Name       string `json:"name"`
	SearchSlug string `json:"search_slug"`
	Prices     Prices `json:"prices"`
	Unit       string `json:"unit"`
	Location   string `json:"location,omitempty"`
	Image      string `json:"image,omitempty"`
	UpdatedAt  int64  `json:"updatedAt"` // epoch milliseconds
}

// NewID returns a fresh opaque product identifier.
func NewID() string {
	return uuid.NewString()
}

// Touch stamps UpdatedAt with the current time, never going backwards.
func (p *Product) Touch(now time.Time) {
	ms := now.UnixMilli()
	if ms < p.UpdatedAt {
		ms = p.UpdatedAt
	}
	p.UpdatedAt = ms
}

// Reslug re-derives SearchSlug from the current Name and Barcode. Must be
// called on every write path that can change either field; the slug is never
// patched incrementally.
func (p *Product) Reslug() {
	p.SearchSlug = vntext.BuildSlug(p.Name, p.Barcode)
}

// HistoryEntry is an append-only lookup record. ProductName and RetailPrice
// are denormalised at lookup time, not read live.
type HistoryEntry struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"productId"`
	Barcode     string  `json:"barcode,omitempty"`
	ProductName string  `json:"productName"`
	RetailPrice float64 `json:"retailPrice"`
	Timestamp   int64   `json:"timestamp"` // epoch milliseconds
}

// PriceText renders the captured retail price for display.
func (e HistoryEntry) PriceText() string {
	return vntext.FormatPrice(e.RetailPrice)
}

// HistoryLimit bounds the history collection; oldest entries are evicted
// when an insert would exceed it.
const HistoryLimit = 100

// FavoriteEntry marks a product as favorited. At most one per product.
type FavoriteEntry struct {
	ProductID string `json:"productId"`
	AddedAt   int64  `json:"addedAt"` // epoch milliseconds
}
