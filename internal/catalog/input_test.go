package catalog

import (
	"errors"
	"testing"
	"time"
)

func TestNewProductDefaults(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	p, err := NewProduct(Input{
		Barcode: "8934567890123",
		Name:    "Sữa Ông Thọ",
		Retail:  25000,
	}, now)
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}
	if p.ID == "" {
		t.Error("ID not assigned")
	}
	if p.SearchSlug != "sua ong tho 8934567890123" {
		t.Errorf("SearchSlug = %q", p.SearchSlug)
	}
	if p.Prices.Wholesale != 25000 {
		t.Errorf("Wholesale = %v; want retail fallback 25000", p.Prices.Wholesale)
	}
	if p.Unit != DefaultUnit {
		t.Errorf("Unit = %q; want %q", p.Unit, DefaultUnit)
	}
	if p.UpdatedAt != now.UnixMilli() {
		t.Errorf("UpdatedAt = %d; want %d", p.UpdatedAt, now.UnixMilli())
	}
}

func TestNewProductValidation(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		in   Input
	}{
		{"missing name", Input{Retail: 1000}},
		{"zero retail", Input{Name: "Kẹo", Retail: 0}},
		{"negative retail", Input{Name: "Kẹo", Retail: -5}},
		{"non-digit barcode", Input{Name: "Kẹo", Retail: 1000, Barcode: "12ab"}},
	}
	for _, tc := range cases {
		_, err := NewProduct(tc.in, now)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if !IsValidation(err) {
			t.Errorf("%s: error %v is not a ValidationError", tc.name, err)
		}
	}
}

func TestApplyReslugs(t *testing.T) {
	now := time.UnixMilli(1000)
	p, err := NewProduct(Input{Name: "Cà phê Đen", Retail: 15000}, now)
	if err != nil {
		t.Fatalf("NewProduct: %v", err)
	}
	if p.SearchSlug != "ca phe den" {
		t.Fatalf("initial slug = %q", p.SearchSlug)
	}

	later := time.UnixMilli(2000)
	p2, err := p.Apply(Input{Name: "Cà phê Sữa", Barcode: "999", Retail: 18000}, later)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if p2.SearchSlug != "ca phe sua 999" {
		t.Errorf("slug not re-derived: %q", p2.SearchSlug)
	}
	if p2.UpdatedAt <= p.UpdatedAt {
		t.Errorf("UpdatedAt did not advance: %d vs %d", p2.UpdatedAt, p.UpdatedAt)
	}
	if p2.ID != p.ID {
		t.Errorf("Apply changed the identity: %q vs %q", p2.ID, p.ID)
	}
}

func TestTouchNeverGoesBackwards(t *testing.T) {
	p := Product{UpdatedAt: 5000}
	p.Touch(time.UnixMilli(3000))
	if p.UpdatedAt != 5000 {
		t.Errorf("UpdatedAt regressed to %d", p.UpdatedAt)
	}
	p.Touch(time.UnixMilli(7000))
	if p.UpdatedAt != 7000 {
		t.Errorf("UpdatedAt = %d; want 7000", p.UpdatedAt)
	}
}

func TestErrNotFoundIdentity(t *testing.T) {
	wrapped := errors.Join(ErrNotFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped ErrNotFound not detected")
	}
	if IsValidation(ErrNotFound) {
		t.Error("ErrNotFound misclassified as validation error")
	}
}

func TestParseSortMode(t *testing.T) {
	cases := map[string]SortMode{
		"newest":     SortNewest,
		"price_asc":  SortPriceAsc,
		"price_desc": SortPriceDesc,
		"name_asc":   SortNameAsc,
		"":           SortNewest,
		"garbage":    SortNewest,
	}
	for in, want := range cases {
		if got := ParseSortMode(in); got != want {
			t.Errorf("ParseSortMode(%q) = %q; want %q", in, got, want)
		}
	}
}
