package store

import (
	"testing"

	"github.com/levutuan/tragia/internal/catalog"
)

// openPrefilterStore opens a store whose candidate budget is smaller than
// the fixture catalog, forcing every non-empty query through the index
// prefilter instead of the full snapshot scan.
func openPrefilterStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), Options{CandidateBudget: 3})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	for i, p := range []catalog.Product{
		testProduct("a", "Sữa Vinamilk Không Đường", "8934001", 30000, 5),
		testProduct("b", "Sữa Vinamilk Có Đường", "8934002", 30000, 4),
		testProduct("c", "Bia 333", "", 15000, 3),
		testProduct("d", "Trà xanh", "777", 12000, 2),
		testProduct("e", "Kẹo dừa", "888", 5000, 1),
	} {
		if err := s.PutProduct(p); err != nil {
			t.Fatalf("PutProduct %d: %v", i, err)
		}
	}
	return s
}

func TestPrefilterNumericFallsThroughToSlug(t *testing.T) {
	s := openPrefilterStore(t)

	// No barcode matches 333; the digits live inside a barcode-less
	// product's name and must still be reachable through the slug index.
	res, err := s.Search("333", catalog.SortNewest, 0, 30)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 || res.Products[0].ID != "c" {
		t.Fatalf("numeric fallthrough = %+v; want only Bia 333", res)
	}
}

func TestPrefilterBarcodePaths(t *testing.T) {
	s := openPrefilterStore(t)

	res, err := s.Search("8934001", catalog.SortNewest, 0, 30)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 || res.Products[0].ID != "a" {
		t.Errorf("exact barcode = %+v; want a", res)
	}

	res, err = s.Search("8934", catalog.SortNewest, 0, 30)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("barcode prefix total = %d; want 2", res.Total)
	}
}

func TestPrefilterMultiWordText(t *testing.T) {
	s := openPrefilterStore(t)

	res, err := s.Search("vinamilk khong", catalog.SortNewest, 0, 30)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 || res.Products[0].ID != "a" {
		t.Errorf("multi-word AND = %+v; want only a", res)
	}

	res, err = s.Search("vinamilk", catalog.SortNewest, 0, 30)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("single token total = %d; want 2", res.Total)
	}
}

func TestPrefilterNoMatchIsEmpty(t *testing.T) {
	s := openPrefilterStore(t)

	res, err := s.Search("khongcogi", catalog.SortNewest, 0, 30)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 0 || len(res.Products) != 0 {
		t.Errorf("no-match = %+v; want empty", res)
	}
}
