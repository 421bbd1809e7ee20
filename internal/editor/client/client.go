// Package client talks to the cover studio HTTP API on behalf of an editor.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/docsync"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/document"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx reply carrying the service error envelope.
type APIError struct {
	Status  int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap maps HTTP statuses onto the sync layer's sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return docsync.ErrValidation
	case http.StatusNotFound:
		return docsync.ErrNotFound
	case http.StatusConflict:
		return docsync.ErrVersionConflict
	case http.StatusUnprocessableEntity:
		return document.ErrLastTemplate
	}
	return nil
}

// Client implements docsync.Remote and the book endpoints over HTTP.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ docsync.Remote = (*Client)(nil)

type saveAllRequest struct {
	Templates []models.Template `json:"templates"`
	Version   int64             `json:"version,omitempty"`
}

type updateOneRequest struct {
	Name      string           `json:"name,omitempty"`
	CoverData models.CoverData `json:"coverData"`
	Version   int64            `json:"version,omitempty"`
}

func (c *Client) FetchAll(ctx context.Context) (docsync.Snapshot, error) {
	var snap docsync.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/v1/templates", nil, nil, &snap)
	return snap, err
}

func (c *Client) SaveAll(ctx context.Context, templates []models.Template, baseVersion int64) (docsync.Snapshot, error) {
	var snap docsync.Snapshot
	body := saveAllRequest{Templates: templates, Version: baseVersion}
	err := c.do(ctx, http.MethodPut, "/api/v1/templates", nil, body, &snap)
	return snap, err
}

func (c *Client) UpdateOne(ctx context.Context, id string, t models.Template, baseVersion int64) (docsync.Snapshot, error) {
	if id == "" {
		return docsync.Snapshot{}, fmt.Errorf("%w: template id is required", docsync.ErrValidation)
	}
	var snap docsync.Snapshot
	body := updateOneRequest{Name: t.Name, CoverData: t.CoverData, Version: baseVersion}
	err := c.do(ctx, http.MethodPut, "/api/v1/templates/"+url.PathEscape(id), nil, body, &snap)
	return snap, err
}

func (c *Client) DeleteOne(ctx context.Context, id string, baseVersion int64) (docsync.Snapshot, error) {
	if id == "" {
		return docsync.Snapshot{}, fmt.Errorf("%w: template id is required", docsync.ErrValidation)
	}
	q := url.Values{}
	if baseVersion != 0 {
		q.Set("version", strconv.FormatInt(baseVersion, 10))
	}
	var snap docsync.Snapshot
	err := c.do(ctx, http.MethodDelete, "/api/v1/templates/"+url.PathEscape(id), q, nil, &snap)
	return snap, err
}

// GetBook loads a book record. A missing record yields docsync.ErrNotFound.
func (c *Client) GetBook(ctx context.Context, id string) (models.BookModel, error) {
	var book models.BookModel
	err := c.do(ctx, http.MethodGet, "/api/v1/books/"+url.PathEscape(id), nil, nil, &book)
	return book, err
}

// UpsertBook creates or replaces the book record with req.ID.
func (c *Client) UpsertBook(ctx context.Context, req models.BookUpsert) (models.BookModel, error) {
	if req.ID == "" {
		return models.BookModel{}, fmt.Errorf("%w: book id is required", docsync.ErrValidation)
	}
	var book models.BookModel
	err := c.do(ctx, http.MethodPost, "/api/v1/books", nil, req, &book)
	return book, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
