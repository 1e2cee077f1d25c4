package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-model-viewer/models"
)

// ModelLister fetches the model list from the server.
type ModelLister interface {
	ListModels(ctx context.Context) ([]models.ModelEntry, error)
}

// AssetFetcher opens a model asset.
type AssetFetcher interface {
	FetchModel(ctx context.Context, source string) (io.ReadCloser, error)
}

// CatalogClient wraps REST access to the model server.
type CatalogClient struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewCatalogClient creates a client for the given base URL (e.g. http://localhost:8080).
func NewCatalogClient(rawURL string, timeout time.Duration) (*CatalogClient, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("catalog client: parse url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog client: base url %q needs a scheme and host", rawURL)
	}
	return &CatalogClient{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// ListModels issues GET /models/?format=json&name=1.
func (c *CatalogClient) ListModels(ctx context.Context) ([]models.ModelEntry, error) {
	u := c.baseURL.ResolveReference(&url.URL{Path: "/models/", RawQuery: "format=json&name=1"})
	resp, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []models.ModelEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("catalog client: decode model list: %w", err)
	}
	return entries, nil
}

// FetchModel opens source, which is either an absolute URL or a file name under /models/.
func (c *CatalogClient) FetchModel(ctx context.Context, source string) (io.ReadCloser, error) {
	target := source
	if !strings.Contains(source, "://") {
		target = c.baseURL.ResolveReference(&url.URL{Path: "/models/" + source}).String()
	}
	resp, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *CatalogClient) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog client: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog client: GET %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("catalog client: GET %s: %s: %s", target, resp.Status, strings.TrimSpace(string(body)))
	}
	return resp, nil
}
