package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrGatewayUnavailable is transient: the caller retries the payment
	// step, the order stays in placed.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrSignatureMismatch is fatal for the callback attempt; the order's
	// payment is marked failed.
	ErrSignatureMismatch = errors.New("payment signature mismatch")
)

// Gateway is the external payment collaborator.
type Gateway interface {
	// CreateIntent asks for a payment handle scoped to amount, correlated
	// by reference (the order code).
	CreateIntent(ctx context.Context, amount, reference string) (string, error)
}

// Sign is the callback expectation: HMAC-SHA256 over the two gateway
// references, hex encoded. Pure, so it is trivially testable.
func Sign(secret, gatewayOrderRef, gatewayPaymentRef string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderRef + "|" + gatewayPaymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

type HTTPGateway struct {
	HTTP    *http.Client
	BaseURL string
}

func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: baseURL,
	}
}

func (g *HTTPGateway) CreateIntent(ctx context.Context, amount, reference string) (string, error) {
	body, _ := json.Marshal(map[string]string{"amount": amount, "reference": reference})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/intents", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, err := g.HTTP.Do(req)
	if err != nil {
		return "", ErrGatewayUnavailable
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK || res.StatusCode == http.StatusCreated:
		var out struct {
			GatewayOrderRef string `json:"gateway_order_ref"`
		}
		if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
			return "", ErrGatewayUnavailable
		}
		return out.GatewayOrderRef, nil
	case res.StatusCode >= 500:
		return "", ErrGatewayUnavailable
	default:
		return "", fmt.Errorf("create intent error: %s", res.Status)
	}
}
