// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package hsds is a client for the catalog endpoints of an HDF-over-HTTP (HSDS) service.
// It lists domains under a folder, optionally filtered by an attribute query, and fetches
// the attribute map of a single domain's root group.
//
// Every response is validated against a JSON schema before it is decoded, so callers
// can trust the shape of whatever they receive. Failures carry an errors.Kind:
// cancelled, network_failure, unauthorized, server_error or malformed_response.
package hsds

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/time/rate"

	ferrors "firefly/cli/internal/errors"
	"firefly/cli/internal/metrics"
)

// maxBody bounds how much of a response is read.
const maxBody = 64 << 20

// Client issues catalog requests against one HSDS endpoint.
// It is safe for concurrent use.
type Client struct {
	// endpoint is the service base URL without trailing slash
	endpoint string
	// client is the underlying HTTP client
	client *http.Client
	// username and password enable HTTP basic auth when username is set
	username string
	password string
	// limiter paces outbound requests; nil means unlimited
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithCredentials enables HTTP basic auth.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithRateLimit paces requests to rps per second with the given burst.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a client for endpoint, e.g. "https://hsdshdflab.hdfgroup.org".
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the base URL the client talks to.
func (c *Client) Endpoint() string { return c.endpoint }

// ListDomains calls GET /domains for the given bucket and folder. A non-empty
// query is serialized with Predicate and sent as the query parameter.
func (c *Client) ListDomains(ctx context.Context, bucket, folder string, query []Clause) ([]Domain, error) {
	params := url.Values{}
	params.Set("bucket", bucket)
	params.Set("domain", folder)
	if p := Predicate(query); p != "" {
		params.Set("query", p)
	}

	var out struct {
		Domains []Domain `json:"domains"`
	}
	if err := c.get(ctx, "list_domains", "/domains", params, domainsValidator, &out); err != nil {
		return nil, err
	}
	if out.Domains == nil {
		out.Domains = []Domain{}
	}
	return out.Domains, nil
}

// FetchAttributes calls GET /groups/{root} with include_attrs=1 and returns the
// group's attribute map.
func (c *Client) FetchAttributes(ctx context.Context, bucket, root, domain string) (Attributes, error) {
	params := url.Values{}
	params.Set("bucket", bucket)
	params.Set("domain", domain)
	params.Set("include_attrs", "1")

	var out struct {
		Attributes Attributes `json:"attributes"`
	}
	path := "/groups/" + url.PathEscape(root)
	if err := c.get(ctx, "fetch_attributes", path, params, attributesValidator, &out); err != nil {
		return nil, err
	}
	if out.Attributes == nil {
		out.Attributes = Attributes{}
	}
	return out.Attributes, nil
}

// About calls GET /about. With credentials configured it doubles as an
// authentication check.
func (c *Client) About(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	err := c.get(ctx, "about", "/about", nil, aboutValidator, &info)
	return info, err
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, schema *gojsonschema.Schema, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveRequest(op, string(ferrors.KindOf(err)), time.Since(start))
	}()

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return transportError(ctx, op, werr)
		}
	}

	u := c.endpoint + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ferrors.Wrap(ferrors.NetworkFailure, op, err)
	}
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return transportError(ctx, op, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ferrors.Newf(ferrors.Unauthorized, "%s: %d %s", op, resp.StatusCode, snippet(body))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return ferrors.Newf(ferrors.ServerError, "%s: %d %s", op, resp.StatusCode, snippet(body))
	}

	if err := validate(schema, op, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return ferrors.Wrap(ferrors.MalformedResponse, op, err)
	}
	return nil
}

// transportError classifies a failed round trip. Cancellation by the caller maps
// to Cancelled; everything else, including deadlines, is a network failure.
func transportError(ctx context.Context, op string, err error) error {
	if stderrors.Is(ctx.Err(), context.Canceled) || stderrors.Is(err, context.Canceled) {
		return ferrors.Wrap(ferrors.Cancelled, op, context.Canceled)
	}
	return ferrors.Wrap(ferrors.NetworkFailure, op, err)
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", s)
}
