// Package api implements the REST client for the remote storefront backend.
//
// The backend owns all persistent state: the catalog, every user's cart, and
// the credential registry. This client translates its HTTP/JSON contract into
// the canonical model types and the shared error taxonomy; it never caches
// and never retries; failures are terminal for the triggering operation and
// the caller keeps its previous state.
package api

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
	"sync"
	"time"

	"golang.org/x/mod/semver"

	"storefront/internal/model"
	"storefront/internal/session"
)

// userAgent identifies this client to the backend. Some storefront
// deployments sit behind CDNs that rate-limit requests without one.
const userAgent = "storefront-client/1.0"

// versionHeader is the backend's advertised API version, when present.
const versionHeader = "X-Api-Version"

// Config holds backend client configuration.
type Config struct {
	// BaseURL is the backend endpoint, e.g. "https://shop.example.com/api/v1".
	BaseURL string

	// MinAPIVersion, when set (e.g. "1.2.0"), is compared against the
	// backend's advertised version; an older backend logs a warning once.
	MinAPIVersion string

	// Transport overrides the HTTP transport (e.g. transport.NewChrome).
	Transport http.RoundTripper

	Logger *slog.Logger
}

// Client is the storefront backend REST client. Safe for concurrent use.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	minAPIVersion string
	logger        *slog.Logger

	versionWarn sync.Once
}

// New creates a backend client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: cfg.Transport, // nil = http.DefaultTransport
		},
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		minAPIVersion: cfg.MinAPIVersion,
		logger:        logger,
	}, nil
}

// ListProducts fetches the full catalog.
// GET /products has no auth; a 500 maps to the upstream error with the
// backend's message preserved in the wrapped cause.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var docs []productDoc
	if err := c.do(ctx, http.MethodGet, "/products", "", nil, &docs); err != nil {
		return nil, err
	}
	return toProducts(docs), nil
}

// SearchProducts fetches the products matching query.
// A 404 means "no products matched" and surfaces as model.ErrNotFound; the
// caller clears its visible list rather than treating it as a failure.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	path := "/products/search?value=" + url.QueryEscape(query)
	var docs []productDoc
	if err := c.do(ctx, http.MethodGet, path, "", nil, &docs); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewNotFoundError("products")
		}
		return nil, err
	}
	return toProducts(docs), nil
}

// FetchCart retrieves the session's server cart.
// An anonymous session returns (nil, nil) immediately, without a network
// call: nil is the "no cart" state the reconciler understands.
func (c *Client) FetchCart(ctx context.Context, sess session.Session) ([]model.CartLine, error) {
	if sess.Anonymous() {
		return nil, nil
	}

	var docs []cartLineDoc
	if err := c.do(ctx, http.MethodGet, "/cart", sess.Token, nil, &docs); err != nil {
		return nil, err
	}
	return toCartLines(docs), nil
}

// UpdateCart submits a quantity change for one product and returns the new
// authoritative server cart from the response.
//
// qty is forwarded as-is, including zero: removal-at-zero is the server's
// concern and the returned cart reflects whether the line was dropped.
// A 404 here means the product ID is invalid (a business rejection, not a
// missing route), so it is resurfaced with the server's message verbatim.
func (c *Client) UpdateCart(ctx context.Context, sess session.Session, productID string, qty int) ([]model.CartLine, error) {
	if sess.Anonymous() {
		return nil, model.NewUnauthenticatedError("add item to Cart")
	}

	body := cartUpdateRequest{ProductID: productID, Qty: qty}
	var docs []cartLineDoc
	if err := c.do(ctx, http.MethodPost, "/cart", sess.Token, body, &docs); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && errors.Is(err, model.ErrNotFound) {
			return nil, model.NewRejectedError(apiErr.Message)
		}
		return nil, err
	}
	return toCartLines(docs), nil
}

// Login exchanges a username and password for a credential triple.
// Input is validated locally first; the backend answers 201 on success and
// 400 with a verbatim message on rejection.
func (c *Client) Login(ctx context.Context, username, password string) (model.Credentials, error) {
	if err := ValidateAuthInput(username, password); err != nil {
		return model.Credentials{}, err
	}

	var doc loginDoc
	err := c.do(ctx, http.MethodPost, "/auth/login", "", authRequest{Username: username, Password: password}, &doc)
	if err != nil {
		return model.Credentials{}, err
	}
	return toCredentials(doc), nil
}

// Register creates a new backend account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	if err := ValidateAuthInput(username, password); err != nil {
		return err
	}

	var body statusBody
	return c.do(ctx, http.MethodPost, "/auth/register", "", authRequest{Username: username, Password: password}, &body)
}

// do executes one backend request and decodes the success response into out.
// path is relative to the base URL and may carry a query string. token, when
// non-empty, is sent as a bearer credential. out may be nil to discard the
// body.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError(err)
	}
	defer resp.Body.Close()

	c.checkVersion(resp.Header.Get(versionHeader))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewUpstreamError(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return model.NewUpstreamError(fmt.Errorf("parsing response: %w", err))
	}
	return nil
}

// parseErrorResponse converts a backend error response to an APIError.
// The {success,message} envelope is decoded best-effort; taxonomy mapping:
// 400 → rejected (message verbatim), 401/403 → unauthorized, 404 → not
// found, everything else → upstream.
func parseErrorResponse(statusCode int, body []byte) error {
	var envelope statusBody
	json.Unmarshal(body, &envelope) // best effort

	switch statusCode {
	case 400:
		return model.NewRejectedError(envelope.Message)
	case 401, 403:
		msg := envelope.Message
		if msg == "" {
			msg = "backend authentication failed"
		}
		return model.NewUnauthorizedError(msg)
	case 404:
		err := model.NewNotFoundError("resource")
		if envelope.Message != "" {
			err.Message = envelope.Message
		}
		return err
	default:
		return model.NewUpstreamError(fmt.Errorf("status %d: %s", statusCode, envelope.Message))
	}
}

// checkVersion compares the backend's advertised API version against the
// configured minimum and logs a warning once per client. A backend that does
// not advertise a version is left alone.
func (c *Client) checkVersion(advertised string) {
	if c.minAPIVersion == "" || advertised == "" {
		return
	}

	min, got := normalizeVersion(c.minAPIVersion), normalizeVersion(advertised)
	if !semver.IsValid(min) || !semver.IsValid(got) {
		return
	}
	if semver.Compare(got, min) < 0 {
		c.versionWarn.Do(func() {
			c.logger.Warn("backend API version below supported minimum",
				slog.String("advertised", advertised),
				slog.String("minimum", c.minAPIVersion),
			)
		})
	}
}

// normalizeVersion adds the "v" prefix semver parsing requires.
func normalizeVersion(v string) string {
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
