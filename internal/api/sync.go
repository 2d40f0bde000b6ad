package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/levutuan/tragia/internal/catalog"
)

type syncPushRequest struct {
	Products []catalog.Product `json:"products"`
}

// PushSync applies a batch upsert from a client. Products are merged by
// barcode when present, by identifier otherwise; a record only overwrites
// an existing one when its updatedAt is strictly greater.
func (h *Handler) PushSync(w http.ResponseWriter, r *http.Request) {
	var req syncPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Products) == 0 {
		writeError(w, http.StatusBadRequest, "products array is required")
		return
	}

	inserted, modified := 0, 0
	for _, incoming := range req.Products {
		if incoming.Name == "" {
			continue
		}

		var existing catalog.Product
		var err error
		switch {
		case incoming.Barcode != "":
			existing, err = h.Store.GetByBarcode(incoming.Barcode)
		case incoming.ID != "":
			existing, err = h.Store.GetProduct(incoming.ID)
		default:
			err = catalog.ErrNotFound
		}

		switch {
		case errors.Is(err, catalog.ErrNotFound):
			if incoming.ID == "" {
				incoming.ID = catalog.NewID()
			}
			if incoming.UpdatedAt == 0 {
				incoming.UpdatedAt = time.Now().UnixMilli()
			}
			incoming.Reslug()
			if err := h.Store.PutProduct(incoming); err != nil {
				slog.Error("sync push insert failed", "barcode", incoming.Barcode, "error", err)
				continue
			}
			inserted++
		case err != nil:
			slog.Error("sync push lookup failed", "barcode", incoming.Barcode, "error", err)
		case incoming.UpdatedAt > existing.UpdatedAt:
			merged := existing
			merged.Barcode = incoming.Barcode
			merged.Name = incoming.Name
			merged.Prices = incoming.Prices
			merged.Unit = incoming.Unit
			merged.Location = incoming.Location
			merged.Image = incoming.Image
			merged.UpdatedAt = incoming.UpdatedAt
			merged.Reslug()
			if err := h.Store.PutProduct(merged); err != nil {
				slog.Error("sync push update failed", "id", merged.ID, "error", err)
				continue
			}
			modified++
		}
	}

	slog.Info("sync push applied", "inserted", inserted, "modified", modified)
	writeJSON(w, http.StatusOK, map[string]int{
		"insertedCount": inserted,
		"modifiedCount": modified,
	})
}

// PullSync returns products changed since the ?since watermark, with the
// server clock so clients can advance their watermark.
func (h *Handler) PullSync(w http.ResponseWriter, r *http.Request) {
	since := int64(0)
	if s := r.URL.Query().Get("since"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid since parameter")
			return
		}
		since = n
	}

	products, err := h.Store.ListSince(since)
	if err != nil {
		slog.Error("sync pull failed", "since", since, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"products":   products,
		"count":      len(products),
		"serverTime": time.Now().UnixMilli(),
	})
}
