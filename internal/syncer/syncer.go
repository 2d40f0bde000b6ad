// Package syncer reconciles the local product store with a remote
// server-of-record, both directions, using updatedAt as the ordering
// authority.
package syncer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/levutuan/tragia/internal/catalog"
	"github.com/levutuan/tragia/internal/remote"
	"github.com/levutuan/tragia/internal/store"
)

// Remote is the slice of the repository client the engine needs; tests
// substitute a fake.
type Remote interface {
	BulkUpsertByBarcode(ctx context.Context, products []catalog.Product) (remote.UpsertReport, error)
	ListSince(ctx context.Context, ts int64) ([]catalog.Product, int64, error)
}

// Report summarises one sync run.
type Report struct {
	Pushed int `json:"pushed"`
	Pulled int `json:"pulled"`
}

// Engine runs push/pull passes between a local store and a remote
// repository. Sync is best-effort: a failed phase reports zero and the other
// phase still runs.
type Engine struct {
	local  *store.Store
	remote Remote
	log    *slog.Logger
}

// New builds a sync engine. logger may be nil.
func New(local *store.Store, r Remote, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{local: local, remote: r, log: logger}
}

// Sync executes a full bidirectional pass and reports per-phase counts.
// Network failures are swallowed here; the caller retries on a timer or
// user action.
func (e *Engine) Sync(ctx context.Context) Report {
	rep := Report{
		Pushed: e.push(ctx),
		Pulled: e.pull(ctx),
	}
	// The pull path writes through PutProduct which invalidates per write,
	// but a no-op pull after a failed push must still drop any snapshot
	// taken mid-run.
	e.local.Cache().Invalidate()
	return rep
}

// push sends every locally-known product as a batch upsert keyed by barcode
// (by identifier for products without one). Returns the number of documents
// the remote reported as inserted or modified.
func (e *Engine) push(ctx context.Context) int {
	products, err := e.local.AllProducts()
	if err != nil {
		e.log.Warn("sync push: local scan failed", "error", err)
		return 0
	}
	if len(products) == 0 {
		return 0
	}

	rep, err := e.remote.BulkUpsertByBarcode(ctx, products)
	if err != nil {
		e.log.Warn("sync push failed", "error", err)
		return 0
	}
	e.log.Info("sync push complete", "inserted", rep.InsertedCount, "modified", rep.ModifiedCount)
	return rep.InsertedCount + rep.ModifiedCount
}

// pull fetches remote products newer than the stored watermark and merges
// them last-writer-wins: a remote copy overwrites the local one only when
// its updatedAt is strictly greater; ties keep the local copy.
func (e *Engine) pull(ctx context.Context) int {
	watermark, err := e.local.SyncWatermark()
	if err != nil {
		e.log.Warn("sync pull: watermark read failed", "error", err)
		watermark = 0
	}

	remoteProducts, serverTime, err := e.remote.ListSince(ctx, watermark)
	if err != nil {
		e.log.Warn("sync pull failed", "error", err, "since", watermark)
		return 0
	}

	applied := 0
	for _, rp := range remoteProducts {
		merged, apply, err := e.merge(rp)
		if err != nil {
			e.log.Warn("sync pull: merge failed", "barcode", rp.Barcode, "error", err)
			continue
		}
		if !apply {
			continue
		}
		if err := e.local.PutProduct(merged); err != nil {
			e.log.Warn("sync pull: local write failed", "id", merged.ID, "error", err)
			continue
		}
		applied++
	}

	if serverTime > 0 {
		if err := e.local.SetSyncWatermark(serverTime); err != nil {
			e.log.Warn("sync pull: watermark write failed", "error", err)
		}
	}
	e.log.Info("sync pull complete", "fetched", len(remoteProducts), "applied", applied)
	return applied
}

// merge decides whether a remote product should be written locally and
// under which identity. Matching is by barcode when present, by identifier
// otherwise.
func (e *Engine) merge(rp catalog.Product) (catalog.Product, bool, error) {
	var local catalog.Product
	var err error
	if rp.Barcode != "" {
		local, err = e.local.GetByBarcode(rp.Barcode)
	} else if rp.ID != "" {
		local, err = e.local.GetProduct(rp.ID)
	} else {
		err = catalog.ErrNotFound
	}

	if errors.Is(err, catalog.ErrNotFound) {
		if rp.ID == "" {
			rp.ID = catalog.NewID()
		}
		rp.Reslug()
		return rp, true, nil
	}
	if err != nil {
		return catalog.Product{}, false, err
	}

	if rp.UpdatedAt <= local.UpdatedAt {
		return catalog.Product{}, false, nil
	}

	// Remote wins: take its fields but keep the local identity so history
	// and favorites keep resolving.
	merged := local
	merged.Barcode = rp.Barcode
	merged.Name = rp.Name
	merged.Prices = rp.Prices
	merged.Unit = rp.Unit
	merged.Location = rp.Location
	merged.Image = rp.Image
	merged.UpdatedAt = rp.UpdatedAt
	merged.Reslug()
	return merged, true, nil
}
