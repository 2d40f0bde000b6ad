package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/levutuan/tragia/internal/catalog"
	"github.com/levutuan/tragia/internal/metrics"
	"github.com/levutuan/tragia/internal/store"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Store    *store.Store
	Manifest *store.Manifest

	BarcodeHist *metrics.Histogram
	SearchHist  *metrics.Histogram
}

// Health returns a liveness check with manifest metadata.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if h.Manifest != nil {
		resp["schema_version"] = h.Manifest.SchemaVersion
		resp["build_time"] = h.Manifest.BuildTime
	}
	writeJSON(w, http.StatusOK, resp)
}

// Metrics reports latency snapshots for all registered histograms.
func (h *Handler) Metrics(reg *metrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reg == nil {
			writeJSON(w, http.StatusOK, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, reg.Snapshot())
	}
}

// SearchProducts ranks the catalog against ?q, honouring ?sort, ?page and
// ?limit. A failed search degrades to an empty page rather than an error.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q := r.URL.Query().Get("q")
	mode := catalog.ParseSortMode(r.URL.Query().Get("sort"))
	page := intParam(r, "page", 0)
	limit := intParam(r, "limit", 0)

	res, err := h.Store.Search(q, mode, page, limit)
	if err != nil {
		slog.Error("search failed", "query", q, "error", err)
		res.Products = nil
	}
	if res.Products == nil {
		res.Products = []catalog.Product{}
	}
	if h.SearchHist != nil {
		h.SearchHist.Observe(time.Since(start))
	}
	writeJSON(w, http.StatusOK, res)
}

// CreateProduct adds a product. When the barcode is already known the
// existing record is updated instead, matching the scan-driven add flow.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	now := time.Now()
	var (
		p   catalog.Product
		err error
	)
	upsert := false
	if in.Barcode != "" {
		if existing, lookupErr := h.Store.GetByBarcode(in.Barcode); lookupErr == nil {
			p, err = existing.Apply(in, now)
			upsert = true
		}
	}
	if !upsert {
		p, err = catalog.NewProduct(in, now)
	}
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	if err := h.Store.PutProduct(p); err != nil {
		slog.Error("create product failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	slog.Info("product created", "id", p.ID, "barcode", p.Barcode)
	writeJSON(w, http.StatusCreated, map[string]any{"product": p})
}

// GetProduct looks a product up by its opaque identifier.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProduct(r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": p})
}

// GetProductByBarcode is the scan fast-path point lookup.
func (h *Handler) GetProductByBarcode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, err := h.Store.GetByBarcode(r.PathValue("barcode"))
	if h.BarcodeHist != nil {
		h.BarcodeHist.Observe(time.Since(start))
	}
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": p})
}

// UpdateProduct replaces a product's mutable fields.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	existing, err := h.Store.GetProduct(r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	var in catalog.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := existing.Apply(in, time.Now())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if err := h.Store.PutProduct(p); err != nil {
		slog.Error("update product failed", "id", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": p})
}

// DeleteProduct removes a product immediately; there is no soft delete.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Store.DeleteProduct(id); err != nil {
		h.writeFailure(w, err)
		return
	}
	slog.Info("product deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// writeFailure maps domain errors onto HTTP statuses: validation → 400,
// not-found → 404, anything else → 500.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case catalog.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func intParam(r *http.Request, name string, fallback int) int {
	if s := r.URL.Query().Get(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
