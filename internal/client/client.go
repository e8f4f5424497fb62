// Package client talks to the stock tracker HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"stocktracker/internal/models"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   string
	log     *logrus.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithToken attaches "Authorization: Bearer <token>" to every request.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func WithLogger(log *logrus.Logger) Option { return func(c *Client) { c.log = log } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Signup(ctx context.Context, username, password string) (models.User, error) {
	var u models.User
	err := c.do(ctx, "signup", http.MethodPost, "/api/auth/signup", models.Credentials{Username: username, Password: password}, &u)
	return u, err
}

func (c *Client) Login(ctx context.Context, username, password string) (models.User, error) {
	var u models.User
	err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", models.Credentials{Username: username, Password: password}, &u)
	return u, err
}

func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	var p float64
	err := c.do(ctx, "price", http.MethodGet, "/api/stocks/"+url.PathEscape(symbol)+"/price", nil, &p)
	return p, err
}

func (c *Client) Portfolio(ctx context.Context, username string) (map[string]models.Stock, error) {
	res := map[string]models.Stock{}
	err := c.do(ctx, "portfolio", http.MethodGet, "/api/portfolio/"+url.PathEscape(username), nil, &res)
	return res, err
}

func (c *Client) AddStock(ctx context.Context, username string, s models.Stock) error {
	return c.do(ctx, "add stock", http.MethodPost, "/api/portfolio/"+url.PathEscape(username)+"/add", s, nil)
}

func (c *Client) SellStock(ctx context.Context, username string, s models.Stock) error {
	return c.do(ctx, "sell stock", http.MethodPost, "/api/portfolio/"+url.PathEscape(username)+"/sell", s, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debugf("%s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warnf("%s failed with status %d", op, resp.StatusCode)
		return &RejectionError{Op: op, Status: resp.StatusCode, Message: errorText(respBody)}
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorText unwraps a {"error": "..."} body and falls back to the raw text.
func errorText(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
