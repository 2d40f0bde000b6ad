// Package remote is the HTTP client for a server-of-record product
// repository exposing the same surface as this service's own API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/levutuan/tragia/internal/catalog"
	"github.com/levutuan/tragia/internal/rank"
)

// Client talks to a remote product repository.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New builds a Client for the repository at baseURL. apiKey may be empty
// when the remote does not require authentication.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// UpsertReport counts the outcome of a bulk push.
type UpsertReport struct {
	InsertedCount int `json:"insertedCount"`
	ModifiedCount int `json:"modifiedCount"`
}

type productEnvelope struct {
	Product catalog.Product `json:"product"`
}

type listEnvelope struct {
	Products   []catalog.Product `json:"products"`
	Count      int               `json:"count"`
	ServerTime int64             `json:"serverTime"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// Search runs the repository's ranked product search.
func (c *Client) Search(ctx context.Context, query string, mode catalog.SortMode, page, limit int) (rank.Result, error) {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(query))
	params.Set("sort", string(mode))
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	var res rank.Result
	if err := c.do(ctx, http.MethodGet, "/api/v1/products?"+params.Encode(), nil, &res); err != nil {
		return rank.Result{}, err
	}
	return res, nil
}

// Create adds a product and returns the stored record.
func (c *Client) Create(ctx context.Context, in catalog.Input) (catalog.Product, error) {
	var env productEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/v1/products", in, &env); err != nil {
		return catalog.Product{}, err
	}
	return env.Product, nil
}

// Update replaces a product's mutable fields and returns the stored record.
func (c *Client) Update(ctx context.Context, id string, in catalog.Input) (catalog.Product, error) {
	var env productEnvelope
	if err := c.do(ctx, http.MethodPut, "/api/v1/products/"+url.PathEscape(id), in, &env); err != nil {
		return catalog.Product{}, err
	}
	return env.Product, nil
}

// Delete removes a product.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/products/"+url.PathEscape(id), nil, nil)
}

// GetByID fetches one product by its opaque identifier.
func (c *Client) GetByID(ctx context.Context, id string) (catalog.Product, error) {
	var env productEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/v1/products/"+url.PathEscape(id), nil, &env); err != nil {
		return catalog.Product{}, err
	}
	return env.Product, nil
}

// GetByBarcode fetches one product by barcode.
func (c *Client) GetByBarcode(ctx context.Context, barcode string) (catalog.Product, error) {
	var env productEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/v1/products/barcode/"+url.PathEscape(barcode), nil, &env); err != nil {
		return catalog.Product{}, err
	}
	return env.Product, nil
}

// BulkUpsertByBarcode pushes a batch of products, merged remotely by
// barcode.
func (c *Client) BulkUpsertByBarcode(ctx context.Context, products []catalog.Product) (UpsertReport, error) {
	body := map[string]any{"products": products}
	var rep UpsertReport
	if err := c.do(ctx, http.MethodPost, "/api/v1/products/sync", body, &rep); err != nil {
		return UpsertReport{}, err
	}
	return rep, nil
}

// ListSince pulls products whose updatedAt is strictly greater than ts,
// along with the server's current clock for watermarking.
func (c *Client) ListSince(ctx context.Context, ts int64) ([]catalog.Product, int64, error) {
	var env listEnvelope
	path := "/api/v1/products/sync?since=" + strconv.FormatInt(ts, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, 0, err
	}
	return env.Products, env.ServerTime, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, catalog.ErrNotFound)
	case resp.StatusCode >= 400:
		var env errorEnvelope
		_ = json.NewDecoder(resp.Body).Decode(&env)
		if env.Error == "" {
			env.Error = resp.Status
		}
		if resp.StatusCode == http.StatusBadRequest {
			return &catalog.ValidationError{Fields: []string{env.Error}}
		}
		return fmt.Errorf("%s %s: %s", method, path, env.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
