package search

import (
	"context"

	"github.com/levutuan/tragia/internal/catalog"
	"github.com/levutuan/tragia/internal/rank"
	"github.com/levutuan/tragia/internal/store"
)

// LocalSource backs a Controller with the offline store. The store's
// snapshot cache keeps keystroke bursts from re-scanning Pebble.
type LocalSource struct {
	Store *store.Store
}

func (s LocalSource) Search(_ context.Context, query string, mode catalog.SortMode, page, limit int) (rank.Result, error) {
	return s.Store.Search(query, mode, page, limit)
}
