package store

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/cockroachdb/pebble"

	"github.com/levutuan/tragia/internal/catalog"
)

// WriteBatch accumulates products for batched writes to Pebble and Bleve.
// Used by the importer; it does not check for pre-existing barcode mappings,
// so it is only safe against a fresh or disjoint keyspace.
type WriteBatch struct {
	s     *Store
	pb    *pebble.Batch
	bb    *bleve.Batch
	count int
}

// NewWriteBatch creates a new WriteBatch backed by the given store.
func (s *Store) NewWriteBatch() *WriteBatch {
	return &WriteBatch{
		s:  s,
		pb: s.db.NewBatch(),
		bb: s.index.NewBatch(),
	}
}

// Put accumulates a product in the batch without flushing.
func (b *WriteBatch) Put(p catalog.Product) {
	if p.SearchSlug == "" {
		p.Reslug()
	}
	_ = b.pb.Set([]byte(productPrefix+p.ID), encodeProduct(p), pebble.NoSync)
	if p.Barcode != "" {
		_ = b.pb.Set([]byte(barcodePrefix+p.Barcode), []byte(p.ID), pebble.NoSync)
	}
	_ = b.bb.Index(p.ID, bleveDoc{SearchSlug: p.SearchSlug})
	b.count++
}

// Flush commits both batches to the underlying stores and resets accumulators.
func (b *WriteBatch) Flush() error {
	if err := b.pb.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("pebble batch commit: %w", err)
	}
	if err := b.s.index.Batch(b.bb); err != nil {
		return fmt.Errorf("bleve batch commit: %w", err)
	}
	b.pb.Reset()
	b.bb = b.s.index.NewBatch()
	b.count = 0
	b.s.cache.Invalidate()
	return nil
}

// Close flushes any pending data and releases the pebble batch memory.
func (b *WriteBatch) Close() error {
	if b.count > 0 {
		if err := b.Flush(); err != nil {
			b.pb.Close()
			return err
		}
	}
	b.pb.Close()
	return nil
}

// Len returns the number of records accumulated since the last flush.
func (b *WriteBatch) Len() int {
	return b.count
}
