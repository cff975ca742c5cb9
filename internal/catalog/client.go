// Package catalog talks to the remote demo store API (carts, users,
// products). The remote accepts writes but does not keep them.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-order-overlay/internal/ident"
	"github.com/ariefcatur/go-order-overlay/internal/orders"
	"github.com/ariefcatur/go-order-overlay/internal/users"
)

var ErrRemoteUnavailable = errors.New("remote catalog unavailable")

type Config struct {
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Observer is told the outcome of every remote call.
type Observer interface {
	RemoteCall(op, result string)
}

// Client is the HTTP client for the remote catalog.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	readTimeout  time.Duration
	writeTimeout time.Duration
	log          *slog.Logger
	obs          Observer
}

func NewClient(cfg Config, log *slog.Logger, obs Observer) *Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   &http.Client{},
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		log:          log,
		obs:          obs,
	}
}

func (c *Client) ListOrders(ctx context.Context) ([]orders.Order, error) {
	var out []orders.Order
	err := c.do(ctx, "orders.list", http.MethodGet, "/carts", nil, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context) ([]users.User, error) {
	var out []users.User
	err := c.do(ctx, "users.list", http.MethodGet, "/users", nil, &out)
	return out, err
}

func (c *Client) ListProducts(ctx context.Context) ([]orders.Product, error) {
	var out []orders.Product
	err := c.do(ctx, "products.list", http.MethodGet, "/products", nil, &out)
	return out, err
}

func (c *Client) CreateOrder(ctx context.Context, o orders.Order) error {
	return c.do(ctx, "orders.create", http.MethodPost, "/carts", cartFromOrder(o), nil)
}

func (c *Client) ReplaceOrder(ctx context.Context, id ident.ID, o orders.Order) error {
	return c.do(ctx, "orders.replace", http.MethodPut, "/carts/"+id.String(), cartFromOrder(o), nil)
}

func (c *Client) DeleteOrder(ctx context.Context, id ident.ID) error {
	return c.do(ctx, "orders.delete", http.MethodDelete, "/carts/"+id.String(), nil, nil)
}

func (c *Client) CreateUser(ctx context.Context, u users.User) error {
	return c.do(ctx, "users.create", http.MethodPost, "/users", userBody(u), nil)
}

func (c *Client) ReplaceUser(ctx context.Context, id ident.ID, u users.User) error {
	return c.do(ctx, "users.replace", http.MethodPut, "/users/"+id.String(), userBody(u), nil)
}

func (c *Client) DeleteUser(ctx context.Context, id ident.ID) error {
	return c.do(ctx, "users.delete", http.MethodDelete, "/users/"+id.String(), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	timeout := c.writeTimeout
	if method == http.MethodGet {
		timeout = c.readTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrRemoteUnavailable, method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, "error")
		c.log.Debug("remote call failed", "op", op, "error", err, "elapsed", time.Since(start))
		return fmt.Errorf("%w: %s %s: %w", ErrRemoteUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		c.observe(op, "status")
		return fmt.Errorf("%w: %s %s: status %d", ErrRemoteUnavailable, method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.observe(op, "decode")
			return fmt.Errorf("%w: decode %s: %w", ErrRemoteUnavailable, op, err)
		}
	}
	c.observe(op, "ok")
	c.log.Debug("remote call", "op", op, "status", resp.StatusCode, "elapsed", time.Since(start))
	return nil
}

func (c *Client) observe(op, result string) {
	if c.obs != nil {
		c.obs.RemoteCall(op, result)
	}
}
