// Package remote implements the RemoteOrders port over the orders
// service HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"kitchen-system/internal/kitchen"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// envelope is the orders service response wrapper.
type envelope struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message"`
	Open       *bool                `json:"open"`
	Order      *kitchen.Order       `json:"order"`
	Orders     []*kitchen.Order     `json:"orders"`
	OrderLines []*kitchen.OrderLine `json:"order_lines"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("orders service: decode response: %w", err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		return nil, fmt.Errorf("orders service: %s: %s", resp.Status, env.Message)
	}
	return &env, nil
}

func (c *Client) GetDetails(ctx context.Context, shopID int64) (*kitchen.FetchResult, error) {
	path := "/api/v1/pos/orders/details?shop_id=" + strconv.FormatInt(shopID, 10)
	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return &kitchen.FetchResult{Orders: env.Orders, OrderLines: env.OrderLines}, nil
}

func (c *Client) CreateKitchenOrder(ctx context.Context, posOrderID int64) (*kitchen.Order, error) {
	body := map[string]int64{"pos_order_id": posOrderID}
	env, err := c.do(ctx, http.MethodPost, "/api/v1/kitchen/orders", body)
	if err != nil {
		return nil, err
	}
	return env.Order, nil
}

func (c *Client) SubmitOrder(ctx context.Context, sub *kitchen.Submission) (*kitchen.Order, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/v1/pos/orders", sub)
	if err != nil {
		return nil, err
	}
	return env.Order, nil
}

func (c *Client) ProgressCancel(ctx context.Context, orderID int64) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/pos/orders/%d/cancel", orderID), nil)
	return err
}

func (c *Client) ProgressDraft(ctx context.Context, orderID int64) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/pos/orders/%d/accept", orderID), nil)
	return err
}

func (c *Client) ProgressChange(ctx context.Context, orderID int64) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/pos/orders/%d/done", orderID), nil)
	return err
}

func (c *Client) LineProgressChange(ctx context.Context, lineID int64) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/pos/lines/%d/progress", lineID), nil)
	return err
}

func (c *Client) CheckOrderStatus(ctx context.Context, orderName string) (bool, error) {
	path := "/api/v1/pos/orders/status?name=" + url.QueryEscape(orderName)
	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	if env.Open == nil {
		return false, fmt.Errorf("orders service: status response missing open field")
	}
	return *env.Open, nil
}

func (c *Client) SendPreparationUpdate(ctx context.Context, orderName string) error {
	body := map[string]string{"pos_reference": orderName}
	_, err := c.do(ctx, http.MethodPost, "/api/v1/pos/orders/preparation", body)
	return err
}

var _ kitchen.RemoteOrders = (*Client)(nil)
