// Package cookbook is the HTTP client for the Nextcloud Cookbook REST API.
package cookbook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/ladle/internal/domain"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "Ladle/1.0"

	// maxBodyBytes caps any single response, images included
	maxBodyBytes = 32 << 20
)

var errBodyTooLarge = errors.New("response body too large")

// Client implements domain.CookbookSource. The credential is read from the
// provider on every request so a saved change takes effect immediately.
type Client struct {
	creds      domain.CredentialProvider
	httpClient *http.Client
	maxBody    int
	logger     *slog.Logger
}

var _ domain.CookbookSource = (*Client)(nil)

// NewClient creates a new Cookbook API client. A non-positive timeout uses
// the default.
func NewClient(creds domain.CredentialProvider, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		creds: creds,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxBody: maxBodyBytes,
		logger:  logger,
	}
}

// doRequest performs an authenticated GET against the cookbook base URL
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, accept string) ([]byte, string, error) {
	cred := c.creds.Get()
	if !cred.Configured() {
		return nil, "", domain.ErrConfigurationMissing
	}

	reqURL := strings.TrimRight(cred.BaseURL, "/") + path
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", accept)
	req.Header.Set("Authorization", "Basic "+cred.Token)
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("cookbook request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("cookbook request failed", "url", reqURL, "error", err)
		return nil, "", fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(c.maxBody)+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > c.maxBody {
		c.logger.Error("cookbook response too large", "url", reqURL, "limit", c.maxBody)
		return nil, "", fmt.Errorf("%w: more than %d bytes", errBodyTooLarge, c.maxBody)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, "", domain.ErrAuthFailed
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("cookbook request error", "url", reqURL, "status", resp.StatusCode, "bodyLen", len(body))
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// getJSON performs a request and decodes a JSON body into v. It reports
// whether the body carried a value at all.
func (c *Client) getJSON(ctx context.Context, path string, v any) (bool, error) {
	body, _, err := c.doRequest(ctx, path, nil, "application/json")
	if err != nil {
		return false, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return false, nil
	}

	if err := json.Unmarshal(trimmed, v); err != nil {
		c.logger.Error("JSON parse error", "path", path, "error", err, "bodyLen", len(body))
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	return true, nil
}

// Version returns the cookbook app version, "" when the field is absent
func (c *Client) Version(ctx context.Context) (string, error) {
	var v versionDTO
	if _, err := c.getJSON(ctx, "/api/version", &v); err != nil {
		return "", err
	}
	return v.Version(), nil
}

// ListRecipes returns every recipe stub in server order
func (c *Client) ListRecipes(ctx context.Context) ([]domain.RecipeSummary, error) {
	var stubs []recipeStubDTO
	if _, err := c.getJSON(ctx, "/api/v1/recipes", &stubs); err != nil {
		return nil, err
	}
	return MapSummaries(stubs), nil
}

// GetRecipe returns one full recipe, or (nil, nil) when the server answered
// without a record
func (c *Client) GetRecipe(ctx context.Context, id string) (*domain.RecipeDetail, error) {
	var dto recipeDTO
	ok, err := c.getJSON(ctx, "/api/v1/recipes/"+url.PathEscape(id), &dto)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	detail := MapRecipe(dto)
	if detail.IsEmpty() {
		return nil, nil
	}
	if detail.ID == "" {
		detail.ID = id
	}
	return detail, nil
}

// GetImage fetches the binary image of a recipe at the requested size
func (c *Client) GetImage(ctx context.Context, id string, size domain.ImageSize) (domain.Image, error) {
	var query url.Values
	if size != "" {
		query = url.Values{"size": {string(size)}}
	}

	path := "/api/v1/recipes/" + url.PathEscape(id) + "/image"
	body, contentType, err := c.doRequest(ctx, path, query, "image/*")
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: %w", domain.ErrImageUnavailable, err)
	}
	if len(body) == 0 {
		return domain.Image{}, domain.ErrImageUnavailable
	}
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return domain.Image{Data: body, ContentType: contentType}, nil
}

// Search runs a server-side query. The query is path-escaped into the URL.
func (c *Client) Search(ctx context.Context, query string) ([]domain.RecipeSummary, error) {
	var stubs []recipeStubDTO
	if _, err := c.getJSON(ctx, "/api/v1/search/"+url.PathEscape(query), &stubs); err != nil {
		return nil, err
	}
	return MapSummaries(stubs), nil
}
