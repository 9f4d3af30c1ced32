// Package prismic is a small client for the Prismic REST v2 content API.
//
// It covers what a read-only site needs: ref discovery, predicate queries,
// document lookup by UID or ID, and following next_page cursors.
package prismic

import (
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
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("prismic: document not found")
	// ErrForeignURL is returned when a page URL does not belong to the
	// configured repository endpoint.
	ErrForeignURL = errors.New("prismic: page url outside repository endpoint")
)

// APIError is a non-2xx response from the content API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prismic: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("prismic: status %d: %s", e.Status, e.Message)
}

// Observer is called after every API round trip with the operation name,
// its duration and the resulting error (nil on success).
type Observer func(op string, d time.Duration, err error)

// QueryOptions tune a search query. Zero values leave the API defaults.
type QueryOptions struct {
	Ref       string   // content ref; master ref when empty
	PageSize  int      // results per page
	Page      int      // 1-based page number
	Orderings []string // e.g. "document.first_publication_date desc"
	Lang      string
}

// Client is a Prismic content API client.
type Client struct {
	endpoint    *url.URL
	accessToken string
	httpClient  *http.Client
	observe     Observer
}

// Option configures a Client.
type Option func(*Client)

// WithAccessToken sets the token for private repositories.
func WithAccessToken(token string) Option {
	return func(c *Client) { c.accessToken = token }
}

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithObserver registers a hook for request timing.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// NewClient creates a client for endpoint, e.g.
// https://my-repo.cdn.prismic.io/api/v2
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse endpoint: unsupported scheme %q", u.Scheme)
	}
	c := &Client{
		endpoint: u,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the repository endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// API fetches the repository descriptor.
func (c *Client) API(ctx context.Context) (*API, error) {
	u := *c.endpoint
	q := url.Values{}
	if c.accessToken != "" {
		q.Set("access_token", c.accessToken)
	}
	u.RawQuery = q.Encode()

	var api API
	if err := c.get(ctx, "api", u.String(), &api); err != nil {
		return nil, fmt.Errorf("get api: %w", err)
	}
	return &api, nil
}

// MasterRef returns the ref of the currently published content.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	api, err := c.API(ctx)
	if err != nil {
		return "", err
	}
	ref := api.Master()
	if ref == "" {
		return "", fmt.Errorf("get api: no master ref")
	}
	return ref, nil
}

// Query runs a predicate search and returns one page of results.
func (c *Client) Query(ctx context.Context, preds []Predicate, opts QueryOptions) (*Response, error) {
	ref := opts.Ref
	if ref == "" {
		master, err := c.MasterRef(ctx)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		ref = master
	}

	q := url.Values{}
	q.Set("ref", ref)
	if len(preds) > 0 {
		q.Set("q", encodePredicates(preds))
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if len(opts.Orderings) > 0 {
		q.Set("orderings", "["+strings.Join(opts.Orderings, ",")+"]")
	}
	if opts.Lang != "" {
		q.Set("lang", opts.Lang)
	}
	if c.accessToken != "" {
		q.Set("access_token", c.accessToken)
	}

	u := *c.endpoint
	u.Path = strings.TrimSuffix(u.Path, "/") + "/documents/search"
	u.RawQuery = q.Encode()

	var resp Response
	if err := c.get(ctx, "query", u.String(), &resp); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return &resp, nil
}

// GetByUID returns the document of docType with the given UID.
func (c *Client) GetByUID(ctx context.Context, docType, uid string, opts QueryOptions) (*Document, error) {
	opts.PageSize = 1
	resp, err := c.Query(ctx, []Predicate{At("my."+docType+".uid", uid)}, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// GetByID returns the document with the given ID.
func (c *Client) GetByID(ctx context.Context, id string, opts QueryOptions) (*Document, error) {
	opts.PageSize = 1
	resp, err := c.Query(ctx, []Predicate{At("document.id", id)}, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// FetchPage follows a next_page URL from an earlier Response. The URL must
// point at this client's endpoint host.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*Response, error) {
	if err := c.CheckPageURL(pageURL); err != nil {
		return nil, err
	}
	var resp Response
	if err := c.get(ctx, "page", pageURL, &resp); err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	return &resp, nil
}

// CheckPageURL returns ErrForeignURL unless pageURL points at this client's
// endpoint.
func (c *Client) CheckPageURL(pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil || !c.owns(u) {
		return ErrForeignURL
	}
	return nil
}

func (c *Client) owns(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, c.endpoint.Scheme) &&
		strings.EqualFold(u.Host, c.endpoint.Host) &&
		strings.HasPrefix(u.Path, c.endpoint.Path)
}

func (c *Client) get(ctx context.Context, op, rawURL string, dest interface{}) (err error) {
	start := time.Now()
	defer func() {
		if c.observe != nil {
			c.observe(op, time.Since(start), err)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
