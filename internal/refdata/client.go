package refdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Client reads reference datasets from local files or http(s) URLs.
// Downloaded bodies are cached for ttl.
type Client struct {
	httpClient *http.Client
	cache      *expirable.LRU[string, []byte]
}

// NewClient creates a client. A ttl <= 0 disables caching of downloads.
func NewClient(ttl time.Duration) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if ttl > 0 {
		c.cache = expirable.NewLRU[string, []byte](16, nil, ttl)
	}
	return c
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fetch returns the raw dataset at source.
func (c *Client) Fetch(ctx context.Context, source string) ([]byte, error) {
	if !isURL(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
		return data, nil
	}

	if c.cache != nil {
		if data, ok := c.cache.Get(source); ok {
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s failed: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s returned status %d", source, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if c.cache != nil {
		c.cache.Add(source, data)
	}
	return data, nil
}

// Healthcheck checks that a reference data server answers at baseURL.
func (c *Client) Healthcheck(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Load fetches and parses both datasets into a new catalog. An empty source
// is skipped.
func Load(ctx context.Context, client *Client, airportsSrc, navaidsSrc string) (*Catalog, error) {
	cat := NewCatalog()

	if airportsSrc != "" {
		data, err := client.Fetch(ctx, airportsSrc)
		if err != nil {
			return nil, err
		}
		airports, err := ParseAirports(data)
		if err != nil {
			return nil, fmt.Errorf("airports %s: %w", airportsSrc, err)
		}
		cat.AddAirports(airports...)
	}

	if navaidsSrc != "" {
		data, err := client.Fetch(ctx, navaidsSrc)
		if err != nil {
			return nil, err
		}
		navaids, err := ParseNavaids(data)
		if err != nil {
			return nil, fmt.Errorf("navaids %s: %w", navaidsSrc, err)
		}
		cat.AddNavaids(navaids...)
	}

	return cat, nil
}
