// Package client is a small HTTP client for a stockd node. Stock levels are
// cached locally; writes go straight through.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/stockyard/stockd"
)

const (
	defaultTimeout = 3 * time.Second
	userAgent      = "stockd-client/1.0"
)

type Client struct {
	client  *http.Client
	cache   *cache.Cache
	baseURL string
}

func New(baseURL string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:  &httpClient,
		cache:   cache.New(30*time.Second, time.Minute),
		baseURL: baseURL,
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

// GetStockLevel returns the summed availability for a SKU. Results are
// cached briefly; allocations made through this client invalidate the entry.
func (c *Client) GetStockLevel(ctx context.Context, sku string) (stockd.StockLevel, error) {
	sku = stockd.NormalizeSKU(sku)

	cacheKey := "stock:" + sku
	if x, found := c.cache.Get(cacheKey); found {
		return x.(stockd.StockLevel), nil
	}

	var level stockd.StockLevel
	if err := c.get(ctx, "/stock/"+sku, &level); err != nil {
		return stockd.StockLevel{}, err
	}

	c.cache.Set(cacheKey, level, cache.DefaultExpiration)
	return level, nil
}

// GetBatch returns a batch with its current allocations.
func (c *Client) GetBatch(ctx context.Context, ref string) (stockd.BatchState, error) {
	var state stockd.BatchState
	if err := c.get(ctx, "/batches/"+ref, &state); err != nil {
		return stockd.BatchState{}, err
	}
	return state, nil
}

// GetWellKnown returns the node descriptor.
func (c *Client) GetWellKnown(ctx context.Context) (stockd.WellKnownStockd, error) {
	var wk stockd.WellKnownStockd
	if err := c.get(ctx, "/.well-known/stockd", &wk); err != nil {
		return stockd.WellKnownStockd{}, err
	}
	return wk, nil
}

// AddBatch registers a new batch of stock.
func (c *Client) AddBatch(ctx context.Context, spec stockd.BatchSpec) error {
	var resp map[string]string
	if err := c.do(ctx, http.MethodPost, "/batches", spec, &resp); err != nil {
		return err
	}
	c.cache.Delete("stock:" + stockd.NormalizeSKU(spec.SKU))
	return nil
}

// Allocate submits an order line and returns the chosen batch reference.
func (c *Client) Allocate(ctx context.Context, line stockd.OrderLine) (string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodPost, "/allocate", line, &resp); err != nil {
		return "", err
	}
	c.cache.Delete("stock:" + stockd.NormalizeSKU(line.SKU))
	return resp["batchRef"], nil
}

// Deallocate removes a previously allocated order line.
func (c *Client) Deallocate(ctx context.Context, line stockd.OrderLine) (string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodDelete, "/allocate", line, &resp); err != nil {
		return "", err
	}
	c.cache.Delete("stock:" + stockd.NormalizeSKU(line.SKU))
	return resp["batchRef"], nil
}

func (c *Client) get(ctx context.Context, path string, response any) error {
	return c.do(ctx, http.MethodGet, path, nil, response)
}

func (c *Client) do(ctx context.Context, method, path string, body any, response any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if response == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}

	return nil
}
