// Package backend is the REST client for the storefront order/user service.
// It is a thin transport: one request per call, no retries, no backoff, and no
// cancellation beyond what the caller's context provides.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// Client talks to the storefront backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// Config holds backend connection details.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a backend client for the given base URL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base URL %q: %w", cfg.BaseURL, err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// CartItem is the payload for adding a line to the user's cart. Quantity and
// price are carried over verbatim from the source order line during reorder.
type CartItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// ProfilePatch carries a partial profile update; nil fields are omitted.
type ProfilePatch struct {
	Fullname *string `json:"fullname,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// ActiveOrders fetches all active orders for the user.
func (c *Client) ActiveOrders(ctx context.Context, userID string) ([]models.Order, error) {
	var envelope struct {
		Data []models.Order `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/active/"+url.PathEscape(userID), nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch active orders for user %s: %w", userID, err)
	}
	return envelope.Data, nil
}

// Order fetches a single order's full detail.
func (c *Client) Order(ctx context.Context, orderID string) (*models.Order, error) {
	var envelope struct {
		Data *models.Order `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}
	if envelope.Data == nil {
		return nil, &Error{Status: http.StatusNotFound, Message: fmt.Sprintf("order %s not found", orderID)}
	}
	return envelope.Data, nil
}

// AddNote appends a free-text note to the order.
func (c *Client) AddNote(ctx context.Context, orderID, note string) error {
	body := map[string]string{"note": note}
	if err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/notes", body, nil); err != nil {
		return fmt.Errorf("add note to order %s: %w", orderID, err)
	}
	return nil
}

// UpdateAddress patches the order's delivery address.
func (c *Client) UpdateAddress(ctx context.Context, orderID, address string) error {
	body := map[string]string{"deliveryAddress": address}
	if err := c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(orderID)+"/address", body, nil); err != nil {
		return fmt.Errorf("update address of order %s: %w", orderID, err)
	}
	return nil
}

// UpdateStatus requests a status transition for the order.
func (c *Client) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(orderID)+"/status", body, nil); err != nil {
		return fmt.Errorf("update status of order %s: %w", orderID, err)
	}
	return nil
}

// DeleteOrder removes the order.
func (c *Client) DeleteOrder(ctx context.Context, orderID string) error {
	if err := c.do(ctx, http.MethodDelete, "/orders/"+url.PathEscape(orderID), nil, nil); err != nil {
		return fmt.Errorf("delete order %s: %w", orderID, err)
	}
	return nil
}

// AddCartItem adds a single line to the user's cart.
func (c *Client) AddCartItem(ctx context.Context, userID string, item CartItem) error {
	if err := c.do(ctx, http.MethodPost, "/carts/"+url.PathEscape(userID), item, nil); err != nil {
		return fmt.Errorf("add product %s to cart of user %s: %w", item.ProductID, userID, err)
	}
	return nil
}

// Me fetches the current user's profile.
func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	var envelope struct {
		Data struct {
			User *models.Profile `json:"user"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	if envelope.Data.User == nil {
		return nil, &Error{Status: http.StatusNotFound, Message: "current user not found"}
	}
	return envelope.Data.User, nil
}

// UpdateMe patches the current user's profile and returns the server's
// post-edit record, which is authoritative including any normalization.
func (c *Client) UpdateMe(ctx context.Context, patch ProfilePatch) (*models.Profile, error) {
	var envelope struct {
		Data struct {
			User *models.Profile `json:"user"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPatch, "/users/me", patch, &envelope); err != nil {
		return nil, fmt.Errorf("update current user: %w", err)
	}
	if envelope.Data.User == nil {
		return nil, &Error{Status: http.StatusNotFound, Message: "current user not found"}
	}
	return envelope.Data.User, nil
}

// do issues one request and decodes the JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response of %s %s: %w", method, path, err)
	}
	return nil
}
