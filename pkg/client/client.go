// Package client is a Go client for the file index API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/protocol"
)

// Client talks to a file index server. Transport errors are retried for
// reads only; a mutation is sent once since the server may already have
// applied it. HTTP error statuses are returned as *APIError.
type Client struct {
	rc *resty.Client // reads, retried
	mc *resty.Client // mutations, never retried

	mu        sync.RWMutex
	authToken string
	expiresAt time.Time
}

// Config holds client configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	AuthToken  string
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryWait == 0 {
		cfg.RetryWait = 200 * time.Millisecond
	}

	rc := newResty(cfg).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(4 * cfg.RetryWait)

	return &Client{rc: rc, mc: newResty(cfg), authToken: cfg.AuthToken}
}

func newResty(cfg Config) *resty.Client {
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
}

// APIError is an error status returned by the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status of an *APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// SetAuthToken sets the bearer token for requests.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
	c.expiresAt = time.Time{}
}

// AuthToken returns the current token and its expiry (zero when unknown).
func (c *Client) AuthToken() (string, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken, c.expiresAt
}

// request builds a retried read request.
func (c *Client) request(ctx context.Context) *resty.Request {
	return c.newRequest(ctx, c.rc)
}

// mutation builds a request that is attempted once.
func (c *Client) mutation(ctx context.Context) *resty.Request {
	return c.newRequest(ctx, c.mc)
}

func (c *Client) newRequest(ctx context.Context, rc *resty.Client) *resty.Request {
	req := rc.R().SetContext(ctx).SetError(&protocol.ErrorResponse{})
	if tok, _ := c.AuthToken(); tok != "" {
		req.SetAuthToken(tok)
	}
	return req
}

// do executes req and maps error statuses to *APIError.
func do(req *resty.Request, method, path string) (*resty.Response, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Message: resp.Status()}
		if e, ok := resp.Error().(*protocol.ErrorResponse); ok && e.Error != "" {
			apiErr.Message = e.Error
		}
		return resp, apiErr
	}
	return resp, nil
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := do(c.request(ctx), http.MethodGet, "/health")
	return err
}

// List returns the children of path and its breadcrumb segments.
func (c *Client) List(ctx context.Context, path string) (*protocol.ListResponse, error) {
	var result protocol.ListResponse
	req := c.request(ctx).SetQueryParam("path", path).SetResult(&result)
	if _, err := do(req, http.MethodGet, "/api/v1/items"); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get fetches one item.
func (c *Client) Get(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	req := c.request(ctx).SetPathParam("id", id).SetResult(&item)
	if _, err := do(req, http.MethodGet, "/api/v1/items/{id}"); err != nil {
		return nil, err
	}
	return &item, nil
}

// Download returns the (simulated) content of a file.
func (c *Client) Download(ctx context.Context, id string) ([]byte, error) {
	req := c.request(ctx).SetPathParam("id", id)
	resp, err := do(req, http.MethodGet, "/api/v1/download/{id}")
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Upload registers files under path.
func (c *Client) Upload(ctx context.Context, path string, files ...protocol.UploadFile) ([]models.Item, error) {
	var result protocol.UploadResponse
	req := c.mutation(ctx).
		SetBody(protocol.UploadRequest{Path: path, Files: files}).
		SetResult(&result)
	if _, err := do(req, http.MethodPost, "/api/v1/items"); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// CreateFolder creates a folder named name under path.
func (c *Client) CreateFolder(ctx context.Context, path, name string) (*models.Item, error) {
	var item models.Item
	req := c.mutation(ctx).
		SetBody(protocol.FolderRequest{Path: path, Name: name}).
		SetResult(&item)
	if _, err := do(req, http.MethodPost, "/api/v1/folders"); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an item by id.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := do(c.mutation(ctx).SetPathParam("id", id), http.MethodDelete, "/api/v1/items/{id}")
	return err
}

// Refresh restores the server's seed collection and returns its size.
func (c *Client) Refresh(ctx context.Context) (int, error) {
	var result protocol.RefreshResponse
	if _, err := do(c.mutation(ctx).SetResult(&result), http.MethodPost, "/api/v1/refresh"); err != nil {
		return 0, err
	}
	return result.Count, nil
}
