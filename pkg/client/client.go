package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

const (
	RefreshPath = "/auth/refresh"

	fallbackMessage = "Request failed"
	maxBodyBytes    = 4 << 20
)

// APIError is a non-2xx response. Message is the server's error.message, or
// a generic fallback when the body could not be read.
type APIError struct {
	Status      int
	Message     string
	FieldErrors map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

type RequestOptions struct {
	// Credentials sends cookies and allows one refresh-and-retry on 401.
	Credentials bool
}

type Client struct {
	baseURL    string
	session    *Session
	httpClient *http.Client
	jar        http.CookieJar
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithCookieJar sets the jar holding the refresh cookie.
func WithCookieJar(j http.CookieJar) Option {
	return func(c *Client) { c.jar = j }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.session == nil {
		c.session = NewSession()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	hc := *c.httpClient
	switch {
	case c.jar != nil:
		hc.Jar = c.jar
	case hc.Jar == nil:
		// cookiejar.New only fails on a bad PublicSuffixList.
		hc.Jar, _ = cookiejar.New(nil)
	}
	c.jar = hc.Jar
	c.httpClient = &hc

	return c
}

func (c *Client) Session() *Session { return c.session }

func (c *Client) Jar() http.CookieJar { return c.jar }

func (c *Client) BaseURL() string { return c.baseURL }

// Do sends a JSON request and decodes a JSON response into out (when non-nil).
//
// A 401 on a credentialed call other than the refresh endpoint triggers one
// refresh. When it succeeds the request is retried once with the new token;
// when it fails the caller gets the original 401 as an APIError. No other
// status is retried.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts RequestOptions) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, payload, opts)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && opts.Credentials && !isRefreshPath(path) {
		original := decodeResponse(resp, nil)
		_ = resp.Body.Close()

		c.logger.Debug("access token rejected, refreshing", "method", method, "path", path)
		if _, err := c.refresh(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.logger.Debug("refresh failed", "error", err)
			return original
		}

		if resp, err = c.send(ctx, method, path, payload, opts); err != nil {
			return err
		}
	}

	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, opts RequestOptions) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	hc := c.httpClient
	if !opts.Credentials && hc.Jar != nil {
		noCookies := *hc
		noCookies.Jar = nil
		hc = &noCookies
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// refresh exchanges the refresh cookie for a new access token. Do never
// retries the refresh endpoint, so this cannot recurse.
func (c *Client) refresh(ctx context.Context) (*AuthResult, error) {
	var res AuthResult
	if err := c.Do(ctx, http.MethodPost, RefreshPath, nil, &res, RequestOptions{Credentials: true}); err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: fallbackMessage}
	}

	if res.User.ID != "" {
		c.session.Set(res.AccessToken, &res.User)
	} else {
		c.session.SetToken(res.AccessToken)
	}
	return &res, nil
}

func isRefreshPath(path string) bool {
	p, _, _ := strings.Cut(path, "?")
	return p == RefreshPath
}

func decodeResponse(resp *http.Response, out any) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newAPIError(status int, data []byte) *APIError {
	var body struct {
		Error struct {
			Message string `json:"message"`
			Details struct {
				FieldErrors map[string][]string `json:"fieldErrors"`
			} `json:"details"`
		} `json:"error"`
	}

	ae := &APIError{Status: status, Message: fallbackMessage}
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		ae.Message = body.Error.Message
		ae.FieldErrors = body.Error.Details.FieldErrors
	}
	return ae
}
