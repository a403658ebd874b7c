// Package api is the HTTP client for the notes backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"blocknotes/internal/session"
)

// CSRFHeader carries the CSRF token on mutating requests.
const CSRFHeader = "X-CSRF-Token"

// CodeCSRFInvalid is the error code a 403 carries when the token is stale.
const CodeCSRFInvalid = "CSRF_INVALID"

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to the backend on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
}

func New(baseURL string, s *session.Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second, Jar: s},
		session: s,
	}
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Session {
	return c.session
}

// BaseURL returns the backend root, used to resolve relative upload URLs.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ── Transport ───────────────────────────────────────────────

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) csrfToken(ctx context.Context) (string, error) {
	if tok, ok := c.session.CSRFToken(); ok {
		return tok, nil
	}
	var out struct {
		Token string `json:"csrf_token"`
	}
	if err := c.send(ctx, http.MethodGet, "/api/csrf-token", nil, "", &out); err != nil {
		return "", fmt.Errorf("fetch csrf token: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("fetch csrf token: empty token")
	}
	c.session.SetCSRFToken(out.Token)
	return out.Token, nil
}

// do sends a JSON request. Non-GET requests carry the CSRF token.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	contentType := ""
	if in != nil {
		contentType = "application/json"
	}
	return c.send(ctx, method, path, body, contentType, out)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method != http.MethodGet {
		tok, err := c.csrfToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set(CSRFHeader, tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{Status: resp.StatusCode}
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Error
		if apiErr.Message == "" {
			apiErr.Message = eb.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	if resp.StatusCode == http.StatusForbidden && apiErr.Code == CodeCSRFInvalid {
		c.session.InvalidateCSRFToken()
	}
	return apiErr
}
