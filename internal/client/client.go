// Package client is a typed REST client for the TradeDesk API.
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
	"strings"
	"time"

	"github.com/tradedesk/tradedesk/internal/shared"
)

var (
	// ErrRejected marks a response the API answered with success=false.
	ErrRejected = errors.New("request rejected")
	// ErrTransport marks a request that never produced a readable API response.
	ErrTransport = errors.New("transport failure")
)

// Error describes a failed call. Kind is ErrRejected or ErrTransport.
type Error struct {
	Kind    error
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Session is the signed-in identity the client sends as a bearer token.
type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      shared.Principal `json:"user"`
}

// Client talks to one API root.
type Client struct {
	base    string
	http    *http.Client
	session Session
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New constructs a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSession returns a copy of c that authenticates as s.
func (c *Client) WithSession(s Session) *Client {
	cp := *c
	cp.session = s
	return &cp
}

// Session returns the session the client authenticates with.
func (c *Client) Session() Session {
	return c.session
}

type envelope struct {
	Success    bool               `json:"success"`
	Data       json.RawMessage    `json:"data"`
	Message    string             `json:"message"`
	Pagination *shared.Pagination `json:"pagination"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}
	return req, nil
}

// send performs the request and decodes the envelope.
func (c *Client) send(req *http.Request) (envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, &Error{Kind: ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return envelope{}, &Error{Kind: ErrTransport, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		return env, &Error{Kind: ErrRejected, Status: resp.StatusCode, Message: env.Message}
	}
	return env, nil
}

func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, *shared.Pagination, error) {
	var out T
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return out, nil, err
	}
	env, err := c.send(req)
	if err != nil {
		return out, nil, err
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return out, nil, &Error{Kind: ErrTransport, Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return out, env.Pagination, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	s, _, err := call[Session](ctx, c, http.MethodPost, "/auth/login", nil, map[string]string{
		"username": username,
		"password": password,
	})
	return s, err
}

// Logout revokes the current session.
func (c *Client) Logout(ctx context.Context) error {
	_, _, err := call[json.RawMessage](ctx, c, http.MethodPost, "/auth/logout", nil, nil)
	return err
}

// Me returns the principal of the current session.
func (c *Client) Me(ctx context.Context) (shared.Principal, error) {
	p, _, err := call[shared.Principal](ctx, c, http.MethodGet, "/auth/me", nil, nil)
	return p, err
}
