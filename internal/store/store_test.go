package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/levutuan/tragia/internal/catalog"
	"github.com/levutuan/tragia/internal/vntext"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testProduct(id, name, barcode string, retail float64, updatedAt int64) catalog.Product {
	return catalog.Product{
		ID:         id,
		Barcode:    barcode,
		Name:       name,
		SearchSlug: vntext.BuildSlug(name, barcode),
		Prices:     catalog.Prices{Retail: retail, Wholesale: retail},
		Unit:       catalog.DefaultUnit,
		Location:   "Kệ 3",
		UpdatedAt:  updatedAt,
	}
}

func TestProductRoundTrip(t *testing.T) {
	s := openTestStore(t)

	want := testProduct("id-1", "Sữa Ông Thọ", "8934567890123", 25000, 1_700_000_000_000)
	want.Image = "https://example.com/sua.jpg"
	if err := s.PutProduct(want); err != nil {
		t.Fatalf("PutProduct: %v", err)
	}

	got, err := s.GetProduct("id-1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got != want {
		t.Errorf("product round trip mismatch:\n got  %+v\n want %+v", got, want)
	}

	byBarcode, err := s.GetByBarcode("8934567890123")
	if err != nil {
		t.Fatalf("GetByBarcode: %v", err)
	}
	if byBarcode.ID != "id-1" {
		t.Errorf("GetByBarcode ID = %q; want id-1", byBarcode.ID)
	}
}

func TestGetMissingProduct(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetProduct("nope")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("err = %v; want ErrNotFound", err)
	}
	_, err = s.GetByBarcode("000")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("barcode err = %v; want ErrNotFound", err)
	}
}

func TestBarcodeChangeUpdatesIndex(t *testing.T) {
	s := openTestStore(t)

	p := testProduct("id-1", "Kẹo", "111", 1000, 1)
	if err := s.PutProduct(p); err != nil {
		t.Fatalf("PutProduct: %v", err)
	}

	p.Barcode = "222"
	p.Reslug()
	if err := s.PutProduct(p); err != nil {
		t.Fatalf("PutProduct (rekey): %v", err)
	}

	if _, err := s.GetByBarcode("111"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("stale barcode still resolves: %v", err)
	}
	got, err := s.GetByBarcode("222")
	if err != nil || got.ID != "id-1" {
		t.Errorf("new barcode lookup = (%v, %v)", got.ID, err)
	}
}

func TestDeleteProduct(t *testing.T) {
	s := openTestStore(t)

	p := testProduct("id-1", "Kẹo", "111", 1000, 1)
	if err := s.PutProduct(p); err != nil {
		t.Fatalf("PutProduct: %v", err)
	}
	if _, err := s.ToggleFavorite("id-1"); err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}

	if err := s.DeleteProduct("id-1"); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := s.GetProduct("id-1"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("product survived delete: %v", err)
	}
	if _, err := s.GetByBarcode("111"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("barcode index survived delete: %v", err)
	}
	fav, err := s.IsFavorite("id-1")
	if err != nil || fav {
		t.Errorf("favorite survived delete: (%v, %v)", fav, err)
	}

	if err := s.DeleteProduct("id-1"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("second delete err = %v; want ErrNotFound", err)
	}
}

func TestStoreSearchBarcodeFastPath(t *testing.T) {
	s := openTestStore(t)

	for i, p := range []catalog.Product{
		testProduct("a", "Sữa tươi", "8934567", 30000, 3),
		testProduct("b", "Bánh quy", "8934568", 20000, 2),
		testProduct("c", "Trà xanh", "", 12000, 1),
	} {
		if err := s.PutProduct(p); err != nil {
			t.Fatalf("PutProduct %d: %v", i, err)
		}
	}

	res, err := s.Search("8934567", catalog.SortNewest, 0, 30)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 || res.Products[0].ID != "a" {
		t.Errorf("exact barcode search = %+v", res)
	}

	res, err = s.Search("893456", catalog.SortNewest, 0, 30)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("prefix search total = %d; want 2", res.Total)
	}
}

func TestStoreSearchReflectsWrites(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutProduct(testProduct("a", "Cà phê", "", 15000, 1)); err != nil {
		t.Fatalf("PutProduct: %v", err)
	}
	res, err := s.Search("ca phe", catalog.SortNewest, 0, 30)
	if err != nil || res.Total != 1 {
		t.Fatalf("first search = (%+v, %v)", res, err)
	}

	// A write inside the cache TTL must still be visible immediately.
	if err := s.PutProduct(testProduct("b", "Cà phê sữa", "", 18000, 2)); err != nil {
		t.Fatalf("PutProduct: %v", err)
	}
	res, err = s.Search("ca phe", catalog.SortNewest, 0, 30)
	if err != nil || res.Total != 2 {
		t.Errorf("search after write = (%+v, %v); want 2 matches", res, err)
	}
}

func TestListSince(t *testing.T) {
	s := openTestStore(t)
	for i := 1; i <= 3; i++ {
		p := testProduct(fmt.Sprintf("id-%d", i), fmt.Sprintf("Hàng %d", i), "", 1000, int64(i*100))
		if err := s.PutProduct(p); err != nil {
			t.Fatalf("PutProduct: %v", err)
		}
	}
	since, err := s.ListSince(100)
	if err != nil {
		t.Fatalf("ListSince: %v", err)
	}
	if len(since) != 2 {
		t.Errorf("ListSince(100) len = %d; want 2 (strictly greater)", len(since))
	}
}

func TestHistoryBound(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < catalog.HistoryLimit+1; i++ {
		err := s.AddHistory(catalog.HistoryEntry{
			ProductID:   fmt.Sprintf("p%d", i),
			ProductName: fmt.Sprintf("Hàng %d", i),
			RetailPrice: 1000,
			Timestamp:   int64(1000 + i),
		})
		if err != nil {
			t.Fatalf("AddHistory %d: %v", i, err)
		}
	}

	entries, err := s.RecentHistory(0)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(entries) != catalog.HistoryLimit {
		t.Fatalf("history len = %d; want %d", len(entries), catalog.HistoryLimit)
	}
	// Newest first; the single oldest entry (p0) must be the one evicted.
	if entries[0].ProductID != fmt.Sprintf("p%d", catalog.HistoryLimit) {
		t.Errorf("newest entry = %q", entries[0].ProductID)
	}
	for _, e := range entries {
		if e.ProductID == "p0" {
			t.Error("oldest entry was not evicted")
		}
	}
}

func TestClearHistory(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		if err := s.AddHistory(catalog.HistoryEntry{ProductID: "x", ProductName: "X", Timestamp: int64(i + 1)}); err != nil {
			t.Fatalf("AddHistory: %v", err)
		}
	}
	if err := s.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	entries, err := s.RecentHistory(0)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("history len after clear = %d", len(entries))
	}
}

func TestFavoriteToggle(t *testing.T) {
	s := openTestStore(t)
	if err := s.PutProduct(testProduct("x", "Kẹo", "", 1000, 1)); err != nil {
		t.Fatalf("PutProduct: %v", err)
	}

	on, err := s.ToggleFavorite("x")
	if err != nil || !on {
		t.Fatalf("first toggle = (%v, %v); want true", on, err)
	}
	off, err := s.ToggleFavorite("x")
	if err != nil || off {
		t.Fatalf("second toggle = (%v, %v); want false", off, err)
	}
	favs, err := s.Favorites()
	if err != nil {
		t.Fatalf("Favorites: %v", err)
	}
	if len(favs) != 0 {
		t.Errorf("favorites after toggle pair = %d entries", len(favs))
	}
}

func TestFavoritesOrder(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1000)}
	s, err := Open(t.TempDir(), Options{Now: clock.Now})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.PutProduct(testProduct(id, "Hàng "+id, "", 1000, 1)); err != nil {
			t.Fatalf("PutProduct: %v", err)
		}
		if _, err := s.ToggleFavorite(id); err != nil {
			t.Fatalf("ToggleFavorite: %v", err)
		}
		clock.Advance(time.Second)
	}

	products, err := s.FavoriteProducts()
	if err != nil {
		t.Fatalf("FavoriteProducts: %v", err)
	}
	if len(products) != 3 || products[0].ID != "c" || products[2].ID != "a" {
		got := make([]string, len(products))
		for i, p := range products {
			got[i] = p.ID
		}
		t.Errorf("favorite order = %v; want [c b a]", got)
	}
}

func TestSyncWatermark(t *testing.T) {
	s := openTestStore(t)
	ts, err := s.SyncWatermark()
	if err != nil || ts != 0 {
		t.Fatalf("initial watermark = (%d, %v); want 0", ts, err)
	}
	if err := s.SetSyncWatermark(123456); err != nil {
		t.Fatalf("SetSyncWatermark: %v", err)
	}
	ts, err = s.SyncWatermark()
	if err != nil || ts != 123456 {
		t.Errorf("watermark = (%d, %v); want 123456", ts, err)
	}
}
