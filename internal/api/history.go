package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/levutuan/tragia/internal/catalog"
)

// historyEntryResponse is a history record enriched with the live product
// when it still exists.
type historyEntryResponse struct {
	catalog.HistoryEntry
	Product *catalog.Product `json:"product,omitempty"`
}

// ListHistory returns recent lookups, newest first, each joined with its
// product where still resolvable.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	n := intParam(r, "limit", 50)
	entries, err := h.Store.RecentHistory(n)
	if err != nil {
		slog.Error("history list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]historyEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp := historyEntryResponse{HistoryEntry: e}
		if p, err := h.Store.GetProduct(e.ProductID); err == nil {
			resp.Product = &p
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

type addHistoryRequest struct {
	ProductID   string  `json:"productId"`
	Barcode     string  `json:"barcode"`
	ProductName string  `json:"productName"`
	RetailPrice float64 `json:"retailPrice"`
}

// AddHistory records a product lookup. Name and price are denormalised at
// lookup time; missing fields are backfilled from the product when possible.
func (h *Handler) AddHistory(w http.ResponseWriter, r *http.Request) {
	var req addHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	if req.ProductName == "" || req.RetailPrice == 0 {
		if p, err := h.Store.GetProduct(req.ProductID); err == nil {
			if req.ProductName == "" {
				req.ProductName = p.Name
			}
			if req.RetailPrice == 0 {
				req.RetailPrice = p.Prices.Retail
			}
			if req.Barcode == "" {
				req.Barcode = p.Barcode
			}
		}
	}

	err := h.Store.AddHistory(catalog.HistoryEntry{
		ProductID:   req.ProductID,
		Barcode:     req.Barcode,
		ProductName: req.ProductName,
		RetailPrice: req.RetailPrice,
	})
	if err != nil {
		slog.Error("history add failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

// ClearHistory wipes the lookup log.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.ClearHistory(); err != nil {
		slog.Error("history clear failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Favorites handles membership checks (?productId=) and listing (?list=1).
func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	if productID := r.URL.Query().Get("productId"); productID != "" {
		fav, err := h.Store.IsFavorite(productID)
		if err != nil {
			slog.Error("favorite check failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"isFavorite": fav})
		return
	}

	if r.URL.Query().Get("list") != "" {
		products, err := h.Store.FavoriteProducts()
		if err != nil {
			slog.Error("favorite list failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if products == nil {
			products = []catalog.Product{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
		return
	}

	writeError(w, http.StatusBadRequest, "missing parameters")
}

type toggleFavoriteRequest struct {
	ProductID string `json:"productId"`
}

// ToggleFavorite flips favorite membership and reports the new state.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req toggleFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if _, err := h.Store.GetProduct(req.ProductID); errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	fav, err := h.Store.ToggleFavorite(req.ProductID)
	if err != nil {
		slog.Error("favorite toggle failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isFavorite": fav})
}
