// Package mailer is the receipt-mail collaborator client. Fire-and-forget:
// the engine logs failures and moves on.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/quickeats/orders-backend/internal/order"
)

type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func New(baseURL string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: baseURL,
	}
}

func (c *Client) SendReceipt(ctx context.Context, contact string, o *order.Order) error {
	body, _ := json.Marshal(map[string]interface{}{
		"to":      contact,
		"subject": fmt.Sprintf("Your order %s is confirmed", o.Code),
		"order": map[string]interface{}{
			"code":  o.Code,
			"total": o.Total,
			"items": o.Items,
		},
	})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/receipts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("mailer error: %s", res.Status)
	}
	return nil
}

// Noop is used when no mailer collaborator is configured.
type Noop struct{}

func (Noop) SendReceipt(ctx context.Context, contact string, o *order.Order) error { return nil }
