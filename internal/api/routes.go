package api

import (
	"net/http"

	"github.com/levutuan/tragia/internal/auth"
	"github.com/levutuan/tragia/internal/metrics"
	"github.com/levutuan/tragia/internal/store"
)

// RegisterRoutes registers all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, apiKeys []string, s *store.Store, m *store.Manifest, reg *metrics.Registry) {
	h := &Handler{Store: s, Manifest: m}
	if reg != nil {
		h.BarcodeHist = reg.Register("barcode_get", metrics.BucketsBarcode)
		h.SearchHist = reg.Register("search", metrics.BucketsSearch)
	}
	protected := auth.APIKeyMiddleware(apiKeys)

	// Public
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /metrics", h.Metrics(reg))

	// Protected: require X-API-Key header (or api_key query param)
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, protected(fn))
	}

	handle("GET /api/v1/products", h.SearchProducts)
	handle("POST /api/v1/products", h.CreateProduct)
	handle("GET /api/v1/products/sync", h.PullSync)
	handle("POST /api/v1/products/sync", h.PushSync)
	handle("GET /api/v1/products/barcode/{barcode}", h.GetProductByBarcode)
	handle("GET /api/v1/products/{id}", h.GetProduct)
	handle("PUT /api/v1/products/{id}", h.UpdateProduct)
	handle("DELETE /api/v1/products/{id}", h.DeleteProduct)

	handle("GET /api/v1/history", h.ListHistory)
	handle("POST /api/v1/history", h.AddHistory)
	handle("DELETE /api/v1/history", h.ClearHistory)

	handle("GET /api/v1/favorites", h.Favorites)
	handle("POST /api/v1/favorites", h.ToggleFavorite)
}
