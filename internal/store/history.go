package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"github.com/levutuan/tragia/internal/catalog"
)

// historyKey orders entries newest-first under ascending key iteration by
// inverting the timestamp; the uuid suffix keeps same-millisecond entries
// distinct.
func historyKey(timestampMs int64, id string) []byte {
	inverted := uint64(math.MaxInt64 - timestampMs)
	return []byte(fmt.Sprintf("%s%020d/%s", historyPrefix, inverted, id))
}

// AddHistory appends a lookup record, assigning ID and Timestamp when unset,
// and evicts the oldest entries beyond catalog.HistoryLimit.
func (s *Store) AddHistory(e catalog.HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp == 0 {
		e.Timestamp = s.now().UnixMilli()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	if err := s.db.Set(historyKey(e.Timestamp, e.ID), data, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set history: %w", err)
	}
	return s.evictHistory()
}

// evictHistory deletes everything past the newest HistoryLimit entries.
func (s *Store) evictHistory() error {
	iter, err := s.db.NewIter(prefixBounds(historyPrefix))
	if err != nil {
		return fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	count := 0
	for iter.First(); iter.Valid(); iter.Next() {
		count++
		if count <= catalog.HistoryLimit {
			continue
		}
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		if err := s.db.Delete(key, pebble.Sync); err != nil {
			return fmt.Errorf("pebble delete history: %w", err)
		}
	}
	return iter.Error()
}

// RecentHistory returns up to n entries, newest first.
func (s *Store) RecentHistory(n int) ([]catalog.HistoryEntry, error) {
	if n <= 0 || n > catalog.HistoryLimit {
		n = catalog.HistoryLimit
	}

	iter, err := s.db.NewIter(prefixBounds(historyPrefix))
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	var out []catalog.HistoryEntry
	for iter.First(); iter.Valid() && len(out) < n; iter.Next() {
		var e catalog.HistoryEntry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("unmarshal history entry: %w", err)
		}
		out = append(out, e)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	return out, nil
}

// ClearHistory removes every history entry.
func (s *Store) ClearHistory() error {
	bounds := prefixBounds(historyPrefix)
	if err := s.db.DeleteRange(bounds.LowerBound, bounds.UpperBound, pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete range: %w", err)
	}
	return nil
}

// ToggleFavorite flips favorite membership for a product and reports the
// resulting state: true when the product is now favorited.
func (s *Store) ToggleFavorite(productID string) (bool, error) {
	key := []byte(favoritePrefix + productID)

	_, closer, err := s.db.Get(key)
	if err == nil {
		closer.Close()
		if err := s.db.Delete(key, pebble.Sync); err != nil {
			return false, fmt.Errorf("pebble delete favorite: %w", err)
		}
		return false, nil
	}
	if err != pebble.ErrNotFound {
		return false, fmt.Errorf("pebble get favorite: %w", err)
	}

	entry := catalog.FavoriteEntry{ProductID: productID, AddedAt: s.now().UnixMilli()}
	data, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("marshal favorite: %w", err)
	}
	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		return false, fmt.Errorf("pebble set favorite: %w", err)
	}
	return true, nil
}

// IsFavorite reports favorite membership.
func (s *Store) IsFavorite(productID string) (bool, error) {
	_, closer, err := s.db.Get([]byte(favoritePrefix + productID))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pebble get favorite: %w", err)
	}
	closer.Close()
	return true, nil
}

// Favorites lists favorite entries, most recently added first.
func (s *Store) Favorites() ([]catalog.FavoriteEntry, error) {
	iter, err := s.db.NewIter(prefixBounds(favoritePrefix))
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	var out []catalog.FavoriteEntry
	for iter.First(); iter.Valid(); iter.Next() {
		var e catalog.FavoriteEntry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("unmarshal favorite: %w", err)
		}
		out = append(out, e)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AddedAt > out[j].AddedAt })
	return out, nil
}

// FavoriteProducts resolves the favorite list to products, skipping entries
// whose product no longer exists, preserving most-recent-first order.
func (s *Store) FavoriteProducts() ([]catalog.Product, error) {
	entries, err := s.Favorites()
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Product, 0, len(entries))
	for _, e := range entries {
		p, err := s.GetProduct(e.ProductID)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
