package search

import (
	"context"
	"log/slog"

	"github.com/levutuan/tragia/internal/catalog"
	"github.com/levutuan/tragia/internal/rank"
)

// FallbackSource tries Primary and falls back to Secondary when Primary
// fails. A primary result, including an empty one, is authoritative; the
// secondary only covers primary errors, so an offline store miss stays a
// miss and a broken store still serves from the remote repository.
type FallbackSource struct {
	Primary   Source
	Secondary Source
	Logger    *slog.Logger
}

func (f FallbackSource) Search(ctx context.Context, query string, mode catalog.SortMode, page, limit int) (rank.Result, error) {
	res, err := f.Primary.Search(ctx, query, mode, page, limit)
	if err == nil {
		return res, nil
	}
	if f.Logger != nil {
		f.Logger.Warn("primary search source failed, falling back", "query", query, "error", err)
	}
	return f.Secondary.Search(ctx, query, mode, page, limit)
}
