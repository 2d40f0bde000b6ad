package importer

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/levutuan/tragia/internal/catalog"
	"github.com/levutuan/tragia/internal/store"
)

func writeDump(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.jsonl.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create dump: %v", err)
	}
	gz := gzip.NewWriter(f)
	for _, l := range lines {
		if _, err := gz.Write(append([]byte(l), '\n')); err != nil {
			t.Fatalf("write dump line: %v", err)
		}
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close dump: %v", err)
	}
	return path
}

func TestImportBuildsStore(t *testing.T) {
	dump := writeDump(t, []string{
		`{"barcode":"8934673100014","name":"Sữa tươi Vinamilk","retail":32000,"wholesale":30000,"unit":"Hộp"}`,
		`{"barcode":"123","name":"Cà phê Trung Nguyên","retail":55000}`,
		`{"name":"Hàng không mã vạch","retail":10000,"location":"Kệ 3"}`,
	})
	outDir := t.TempDir()

	m, err := Import(dump, outDir, false)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if m.ProductCount != 3 {
		t.Fatalf("ProductCount = %d, want 3", m.ProductCount)
	}
	if m.SkippedCount != 0 {
		t.Fatalf("SkippedCount = %d, want 0", m.SkippedCount)
	}

	s, err := store.Open(outDir, store.Options{})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s.Close()

	p, err := s.GetByBarcode("8934673100014")
	if err != nil {
		t.Fatalf("GetByBarcode: %v", err)
	}
	if p.SearchSlug != "sua tuoi vinamilk 8934673100014" {
		t.Errorf("SearchSlug = %q", p.SearchSlug)
	}
	if p.Prices.Wholesale != 30000 {
		t.Errorf("Wholesale = %v, want 30000", p.Prices.Wholesale)
	}
	if p.ID == "" {
		t.Error("imported product has empty ID")
	}

	n, err := s.CountProducts()
	if err != nil {
		t.Fatalf("CountProducts: %v", err)
	}
	if n != 3 {
		t.Errorf("CountProducts = %d, want 3", n)
	}

	rm, err := store.ReadManifest(outDir)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if rm.ProductCount != 3 || rm.SchemaVersion != 1 {
		t.Errorf("manifest round trip = %+v", rm)
	}

	if _, err := s.GetByBarcode("0000"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("missing barcode err = %v, want ErrNotFound", err)
	}
}

func TestImportSkipsInvalidLines(t *testing.T) {
	dump := writeDump(t, []string{
		`{"barcode":"111","name":"Bánh mì","retail":5000}`,
		`{"barcode":"222","retail":5000}`,
		`{"barcode":"333","name":"Giá âm","retail":-1}`,
		`{"barcode":"33a","name":"Mã vạch hỏng","retail":5000}`,
		`not json at all`,
		``,
	})
	outDir := t.TempDir()

	m, err := Import(dump, outDir, false)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if m.ProductCount != 1 {
		t.Errorf("ProductCount = %d, want 1", m.ProductCount)
	}
	if m.SkippedCount != 4 {
		t.Errorf("SkippedCount = %d, want 4", m.SkippedCount)
	}
	want := map[string]int64{
		"empty_name":          1,
		"invalid_price":       1,
		"barcode_not_numeric": 1,
		"parse_error":         1,
	}
	for reason, n := range want {
		if m.SkipReasons[reason] != n {
			t.Errorf("SkipReasons[%q] = %d, want %d", reason, m.SkipReasons[reason], n)
		}
	}
}

func TestDumpProductDefaults(t *testing.T) {
	d := DumpProduct{Barcode: "999", Name: "Nước suối", Retail: 5000}
	p := d.Product(1_700_000_000_000)
	if p.Unit != catalog.DefaultUnit {
		t.Errorf("Unit = %q, want %q", p.Unit, catalog.DefaultUnit)
	}
	if p.Prices.Wholesale != 5000 {
		t.Errorf("Wholesale = %v, want fallback to retail", p.Prices.Wholesale)
	}
	if p.UpdatedAt != 1_700_000_000_000 {
		t.Errorf("UpdatedAt = %d", p.UpdatedAt)
	}
}
