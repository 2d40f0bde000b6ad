// Package search mediates between raw keystroke/scan input and a search
// backend, debouncing request storms and discarding stale responses so only
// the most recent query's results ever reach visible state.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/levutuan/tragia/internal/catalog"
	"github.com/levutuan/tragia/internal/rank"
	"github.com/levutuan/tragia/internal/vntext"
)

// Source produces one page of ranked results for a query. Implementations
// back onto either the local store or the remote repository.
type Source interface {
	Search(ctx context.Context, query string, mode catalog.SortMode, page, limit int) (rank.Result, error)
}

// State is the observable search state exposed to the UI layer.
type State struct {
	Query        string
	Results      []catalog.Product
	Total        int
	HasMore      bool
	IsLoading    bool // no results delivered yet for the current query
	IsValidating bool // a fetch is in flight
	SortBy       catalog.SortMode
}

// Default debounce intervals. Barcode scanning demands low latency; typed
// text tolerates a longer quiet period.
const (
	DefaultDebounceNumeric = 90 * time.Millisecond
	DefaultDebounceText    = 250 * time.Millisecond
)

// Options tune a Controller; the zero value uses production defaults.
type Options struct {
	PageSize        int
	DebounceNumeric time.Duration
	DebounceText    time.Duration
	// OnChange is invoked with a state snapshot after every visible change.
	// It runs outside the controller lock and must not block.
	OnChange func(State)
	Logger   *slog.Logger
}

// Controller owns user-facing search state for one session.
type Controller struct {
	src             Source
	pageSize        int
	debounceNumeric time.Duration
	debounceText    time.Duration
	onChange        func(State)
	log             *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	timer       *time.Timer
	seq         uint64 // identity of the most recently issued fetch
	state       State
	page        int // highest page applied so far
	loadingMore bool
}

// NewController builds a Controller over the given source.
func NewController(src Source, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = rank.DefaultPageSize
	}
	if opts.DebounceNumeric <= 0 {
		opts.DebounceNumeric = DefaultDebounceNumeric
	}
	if opts.DebounceText <= 0 {
		opts.DebounceText = DefaultDebounceText
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		src:             src,
		pageSize:        opts.PageSize,
		debounceNumeric: opts.DebounceNumeric,
		debounceText:    opts.DebounceText,
		onChange:        opts.OnChange,
		log:             opts.Logger,
		ctx:             ctx,
		cancel:          cancel,
		state:           State{SortBy: catalog.SortNewest},
	}
}

// Close cancels the pending debounce timer and any in-flight fetch.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.cancel()
}

// State returns a snapshot of the current search state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Search records new input and schedules a fetch after the adaptive debounce
// interval. New input while the timer is pending resets it.
func (c *Controller) Search(text string) {
	c.mu.Lock()
	c.state.Query = text
	if c.timer != nil {
		c.timer.Stop()
	}
	interval := c.debounceText
	if vntext.IsNumeric(strings.TrimSpace(text)) {
		interval = c.debounceNumeric
	}
	c.timer = time.AfterFunc(interval, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// Only fire for the input that scheduled this timer.
		if c.state.Query != text {
			return
		}
		c.fetchLocked(text, 0, c.pageSize, false)
	})
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

// SearchImmediate bypasses the debounce, for confirmed barcode scans.
func (c *Controller) SearchImmediate(text string) {
	c.mu.Lock()
	c.state.Query = text
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.fetchLocked(text, 0, c.pageSize, false)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

// Refresh re-runs the current query against current data, re-fetching the
// whole loaded window so earlier pages are reconciled too.
func (c *Controller) Refresh() {
	c.mu.Lock()
	c.fetchLocked(c.state.Query, 0, c.pageSize*(c.page+1), false)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

// SetSortBy switches the sort mode and re-runs the current query.
func (c *Controller) SetSortBy(mode catalog.SortMode) {
	c.mu.Lock()
	if c.state.SortBy == mode {
		c.mu.Unlock()
		return
	}
	c.state.SortBy = mode
	c.fetchLocked(c.state.Query, 0, c.pageSize, false)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

// LoadMore appends the next page for the current query. A second call while
// one is already in flight is ignored, as is a call when no page remains.
func (c *Controller) LoadMore() {
	c.mu.Lock()
	if c.loadingMore || !c.state.HasMore {
		c.mu.Unlock()
		return
	}
	c.loadingMore = true
	c.fetchLocked(c.state.Query, c.page+1, c.pageSize, true)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

// RemoveOptimistically strikes a product from the visible result set before
// its delete call resolves. Callers must Refresh after the delete settles;
// on failure the refresh restores the product.
func (c *Controller) RemoveOptimistically(id string) {
	c.mu.Lock()
	kept := c.state.Results[:0:0]
	removed := false
	for _, p := range c.state.Results {
		if p.ID == id {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	if removed {
		c.state.Results = kept
		if c.state.Total > 0 {
			c.state.Total--
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	if removed {
		c.emit(snap)
	}
}

// fetchLocked issues a fetch under the controller lock. The sequence number
// taken here is compared at apply time: responses that are no longer the
// newest are discarded, so a slow early response can never clobber a faster
// later one.
func (c *Controller) fetchLocked(query string, page, limit int, appendMode bool) {
	c.seq++
	seq := c.seq
	mode := c.state.SortBy
	c.state.IsValidating = true
	if !appendMode {
		// A fresh fetch supersedes any in-flight load-more; its response
		// will be discarded by the sequence check, so clear the guard now.
		c.loadingMore = false
	}
	if !appendMode && len(c.state.Results) == 0 {
		c.state.IsLoading = true
	}

	go func() {
		res, err := c.src.Search(c.ctx, query, mode, page, limit)
		if err != nil {
			// Reads degrade to an empty result set, never an error state.
			c.log.Warn("search fetch failed", "query", query, "error", err)
			res = rank.Result{}
		}

		c.mu.Lock()
		if seq != c.seq {
			c.mu.Unlock()
			return // superseded by a newer fetch
		}
		if appendMode {
			c.state.Results = append(c.state.Results, res.Products...)
			c.page = page
			c.loadingMore = false
		} else {
			c.state.Results = res.Products
			c.page = pageOf(limit, c.pageSize)
			c.loadingMore = false
		}
		c.state.Total = res.Total
		c.state.HasMore = res.HasMore
		c.state.IsLoading = false
		c.state.IsValidating = false
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap)
	}()
}

// pageOf maps a window limit back to the highest zero-based page it covers.
func pageOf(limit, pageSize int) int {
	if limit <= pageSize {
		return 0
	}
	return (limit - 1) / pageSize
}

func (c *Controller) snapshotLocked() State {
	snap := c.state
	snap.Results = make([]catalog.Product, len(c.state.Results))
	copy(snap.Results, c.state.Results)
	return snap
}

func (c *Controller) emit(snap State) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}
