// Package store persists the product catalog, lookup history and favorites
// in a Pebble KV store with a Bleve index over search slugs, and fronts
// product reads with a short-lived snapshot cache.
package store

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/cockroachdb/pebble"

	"github.com/levutuan/tragia/internal/catalog"
)

const (
	pebbleDir = "pebble"
	bleveDir  = "bleve"

	productPrefix  = "p/"
	barcodePrefix  = "b/"
	historyPrefix  = "h/"
	favoritePrefix = "f/"
	metaPrefix     = "m/"

	watermarkKey = metaPrefix + "sync_watermark"
)

// defaultCandidateBudget is the largest catalog the search path will scan in
// full. Above it, Bleve pre-filters the candidate set before ranking.
const defaultCandidateBudget = 5000

// bleveDoc is the document structure indexed into Bleve.
type bleveDoc struct {
	SearchSlug string `json:"search_slug"`
}

// Options tune a Store; the zero value uses production defaults.
type Options struct {
	CacheTTL time.Duration
	Now      func() time.Time
	ReadOnly bool
	// CandidateBudget caps the catalog size searched by full snapshot scan;
	// larger catalogs go through the index prefilter. Tests shrink it to
	// exercise the prefilter with small fixtures.
	CandidateBudget int
}

// Store wraps a Pebble KV store, a Bleve slug index and a snapshot cache.
type Store struct {
	db              *pebble.DB
	index           bleve.Index
	cache           *Cache
	now             func() time.Time
	candidateBudget int
}

// Open opens (or initialises) the data directory.
func Open(dataDir string, opts Options) (*Store, error) {
	db, err := pebble.Open(filepath.Join(dataDir, pebbleDir), &pebble.Options{
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}

	blevePath := filepath.Join(dataDir, bleveDir)
	idx, err := bleve.Open(blevePath)
	if err == bleve.ErrorIndexPathDoesNotExist && !opts.ReadOnly {
		var im mapping.IndexMapping
		im, err = newBleveMapping()
		if err == nil {
			idx, err = bleve.New(blevePath, im)
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open bleve index: %w", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	budget := opts.CandidateBudget
	if budget <= 0 {
		budget = defaultCandidateBudget
	}
	return &Store{
		db:              db,
		index:           idx,
		cache:           NewCache(opts.CacheTTL, now),
		now:             now,
		candidateBudget: budget,
	}, nil
}

// Close releases all resources held by the store.
func (s *Store) Close() error {
	var errs []string
	if err := s.index.Close(); err != nil {
		errs = append(errs, "bleve: "+err.Error())
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, "pebble: "+err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("store close: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Cache exposes the snapshot cache, mainly so callers outside the store
// (sync pull) can invalidate it after a merge.
func (s *Store) Cache() *Cache {
	return s.cache
}

// PutProduct upserts a product verbatim. The barcode index and Bleve slug
// index are kept in step; a missing slug is derived before persisting so the
// slug can never diverge from name+barcode.
func (s *Store) PutProduct(p catalog.Product) error {
	if p.ID == "" {
		return fmt.Errorf("product has empty id")
	}
	if p.SearchSlug == "" {
		p.Reslug()
	}

	// Drop a stale barcode mapping when the barcode changed.
	if prev, err := s.GetProduct(p.ID); err == nil {
		if prev.Barcode != "" && prev.Barcode != p.Barcode {
			if err := s.db.Delete([]byte(barcodePrefix+prev.Barcode), pebble.Sync); err != nil {
				return fmt.Errorf("delete old barcode index: %w", err)
			}
		}
	}

	if err := s.db.Set([]byte(productPrefix+p.ID), encodeProduct(p), pebble.Sync); err != nil {
		return fmt.Errorf("pebble set product: %w", err)
	}
	if p.Barcode != "" {
		if err := s.db.Set([]byte(barcodePrefix+p.Barcode), []byte(p.ID), pebble.Sync); err != nil {
			return fmt.Errorf("pebble set barcode index: %w", err)
		}
	}
	if err := s.index.Index(p.ID, bleveDoc{SearchSlug: p.SearchSlug}); err != nil {
		return fmt.Errorf("bleve index: %w", err)
	}

	s.cache.Invalidate()
	return nil
}

// GetProduct retrieves a product by its opaque ID.
func (s *Store) GetProduct(id string) (catalog.Product, error) {
	val, closer, err := s.db.Get([]byte(productPrefix + id))
	if err == pebble.ErrNotFound {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("pebble get product: %w", err)
	}
	defer closer.Close()

	// val is only valid until closer.Close(); copy it
	data := make([]byte, len(val))
	copy(data, val)

	p, err := decodeProduct(data)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("decode product %s: %w", id, err)
	}
	p.ID = id
	return p, nil
}

// GetByBarcode retrieves a product via the barcode index.
func (s *Store) GetByBarcode(barcode string) (catalog.Product, error) {
	val, closer, err := s.db.Get([]byte(barcodePrefix + barcode))
	if err == pebble.ErrNotFound {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("pebble get barcode index: %w", err)
	}
	id := string(val)
	closer.Close()
	return s.GetProduct(id)
}

// DeleteProduct removes a product, its barcode index entry, its Bleve doc
// and any favorite record. Deleting a missing product returns ErrNotFound.
func (s *Store) DeleteProduct(id string) error {
	p, err := s.GetProduct(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete([]byte(productPrefix+id), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete product: %w", err)
	}
	if p.Barcode != "" {
		if err := s.db.Delete([]byte(barcodePrefix+p.Barcode), pebble.Sync); err != nil {
			return fmt.Errorf("pebble delete barcode index: %w", err)
		}
	}
	if err := s.index.Delete(id); err != nil {
		return fmt.Errorf("bleve delete: %w", err)
	}
	_ = s.db.Delete([]byte(favoritePrefix+id), pebble.Sync)

	s.cache.Invalidate()
	return nil
}

// AllProducts scans the full product keyspace.
func (s *Store) AllProducts() ([]catalog.Product, error) {
	iter, err := s.db.NewIter(prefixBounds(productPrefix))
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	var out []catalog.Product
	for iter.First(); iter.Valid(); iter.Next() {
		p, err := decodeProduct(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("decode product %s: %w", iter.Key(), err)
		}
		p.ID = strings.TrimPrefix(string(iter.Key()), productPrefix)
		out = append(out, p)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	return out, nil
}

// ListSince returns products whose UpdatedAt is strictly greater than ts.
func (s *Store) ListSince(ts int64) ([]catalog.Product, error) {
	all, err := s.AllProducts()
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, p := range all {
		if p.UpdatedAt > ts {
			out = append(out, p)
		}
	}
	return out, nil
}

// CountProducts returns the catalog size.
func (s *Store) CountProducts() (int, error) {
	all, err := s.AllProducts()
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// Snapshot returns the product candidate set, served from the snapshot
// cache when fresh.
func (s *Store) Snapshot() ([]catalog.Product, error) {
	return s.cache.Get(s.AllProducts)
}

// SyncWatermark returns the timestamp of the last successful pull, or 0.
func (s *Store) SyncWatermark() (int64, error) {
	val, closer, err := s.db.Get([]byte(watermarkKey))
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("pebble get watermark: %w", err)
	}
	defer closer.Close()
	var ts int64
	if _, err := fmt.Sscanf(string(val), "%d", &ts); err != nil {
		return 0, fmt.Errorf("parse watermark: %w", err)
	}
	return ts, nil
}

// SetSyncWatermark records the timestamp of a successful pull.
func (s *Store) SetSyncWatermark(ts int64) error {
	if err := s.db.Set([]byte(watermarkKey), []byte(fmt.Sprintf("%d", ts)), pebble.Sync); err != nil {
		return fmt.Errorf("pebble set watermark: %w", err)
	}
	return nil
}

// prefixBounds builds iterator options covering exactly one key prefix.
func prefixBounds(prefix string) *pebble.IterOptions {
	upper := []byte(prefix)
	upper = append(upper[:len(upper):len(upper)], 0xff)
	return &pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: upper,
	}
}

// newBleveMapping builds the index mapping used when creating a fresh index.
// The slug analyzer must keep digit tokens: a numeric query with no barcode
// match still has to reach products carrying digits in their name (a slug
// like "bia 333" on a barcode-less product).
func newBleveMapping() (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomAnalyzer("slug", map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("build slug analyzer: %w", err)
	}

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = "slug"
	textField.Store = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("search_slug", textField)

	im.DefaultMapping = docMapping
	return im, nil
}
