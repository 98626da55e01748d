// Package crudclient is a Go client for the API served by crudhttp. It
// decodes the response envelope back into the engine's error types and
// implements cache.Fetcher, so a cache.Cache can be filled from a server.
package crudclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/surrealcrud/surrealcrud"
	"github.com/surrealcrud/surrealcrud/contrib/crudhttp"
	"github.com/surrealcrud/surrealcrud/pkg/models"
	"github.com/surrealcrud/surrealcrud/pkg/validation"
)

// ServerError is returned for responses that carry no client error: 5xx
// answers and bodies that are not an envelope.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("API error: status=%d, body=%s", e.Status, e.Body)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
	userHeader string
	user       models.ID
}

type Option func(*Client)

// WithHTTPClient replaces the default client with its 30 second timeout.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithToken sends token as a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// WithUser sends user in header, for servers using crudhttp.HeaderUser.
func WithUser(header string, user models.ID) Option {
	return func(c *Client) {
		c.userHeader = header
		c.user = user
	}
}

// New returns a client for the server at baseURL, e.g.
// "http://localhost:8080", without a trailing slash.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs an HTTP request with proper headers
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	if c.userHeader != "" {
		req.Header.Set(c.userHeader, c.user.String())
	}

	return c.httpClient.Do(req)
}

// decodeResponse unwraps the envelope into target, or returns the error it
// carries.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return &ServerError{Status: resp.StatusCode, Body: string(raw)}
	}

	var env crudhttp.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &ServerError{Status: resp.StatusCode, Body: string(raw)}
	}
	if len(env.Err) > 0 {
		var body crudhttp.ErrorBody
		if err := json.Unmarshal(env.Err, &body); err != nil {
			return &ServerError{Status: resp.StatusCode, Body: string(raw)}
		}
		return body.Err()
	}
	if resp.StatusCode >= 400 {
		return &ServerError{Status: resp.StatusCode, Body: string(raw)}
	}

	if target != nil && len(env.Ok) > 0 {
		if err := json.Unmarshal(env.Ok, target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body, target any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, target)
}

func tablePath(table string) string {
	return "/api/" + table
}

// Health checks the health status of the server
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ServerError{Status: resp.StatusCode, Body: string(body)}
	}
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result, nil
}

func (c *Client) Get(ctx context.Context, id models.ID) (models.Document, error) {
	var doc models.Document
	if err := c.call(ctx, http.MethodGet, tablePath(id.Table), id, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Client) GetAll(ctx context.Context, table string) ([]models.Document, error) {
	var rows []models.Document
	if err := c.call(ctx, http.MethodGet, tablePath(table)+"/all", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchAll implements cache.Fetcher.
func (c *Client) FetchAll(ctx context.Context, table string) ([]models.Document, error) {
	return c.GetAll(ctx, table)
}

func (c *Client) GetAllByFkey(ctx context.Context, table, fkey string, value models.ID) ([]models.Document, error) {
	var rows []models.Document
	if err := c.call(ctx, http.MethodGet, tablePath(table)+"/by/"+fkey, value, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) Insert(ctx context.Context, table string, doc any) (*surrealcrud.Node, error) {
	var node surrealcrud.Node
	if err := c.call(ctx, http.MethodPost, tablePath(table), doc, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (c *Client) Update(ctx context.Context, id models.ID, doc any) (*surrealcrud.Node, error) {
	var node surrealcrud.Node
	body := map[string]any{"id": id, "data": doc}
	if err := c.call(ctx, http.MethodPut, tablePath(id.Table), body, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (c *Client) Delete(ctx context.Context, id models.ID) (models.Document, error) {
	var doc models.Document
	if err := c.call(ctx, http.MethodDelete, tablePath(id.Table), id, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Client) Validate(ctx context.Context, table string, doc any) (*validation.Report, error) {
	rep := validation.NewReport()
	if err := c.call(ctx, http.MethodPost, tablePath(table)+"/validate", doc, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (c *Client) ApplyOneToMany(ctx context.Context, childTable, fkey string, parent models.ID, changes []surrealcrud.OtmChange) ([]surrealcrud.OtmOutcome, error) {
	var out []surrealcrud.OtmOutcome
	body := map[string]any{"id": parent, "changes": changes}
	if err := c.call(ctx, http.MethodPatch, tablePath(childTable)+"/otm/"+fkey, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ApplyManyToMany(ctx context.Context, junction, side string, self models.ID, changes []surrealcrud.MtmChange) ([]surrealcrud.MtmOutcome, error) {
	var out []surrealcrud.MtmOutcome
	body := map[string]any{"id": self, "changes": changes}
	if err := c.call(ctx, http.MethodPatch, tablePath(junction)+"/mtm/"+side, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
