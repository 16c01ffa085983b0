package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPStore talks to a remote catalog service exposing the same contract:
// GET /entries/{id} and POST /entries/{id}/adjust with {"delta": n}.
// The remote side owns atomicity of the adjust.
type HTTPStore struct {
	HTTP    *http.Client
	BaseURL string
}

func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: baseURL,
	}
}

func (s *HTTPStore) Get(ctx context.Context, id string) (*Entry, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/entries/%s", s.BaseURL, id), nil)
	res, err := s.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, ErrNotFound
	}
	var e Entry
	if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *HTTPStore) Adjust(ctx context.Context, id string, delta int) error {
	body, _ := json.Marshal(map[string]int{"delta": delta})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/entries/%s/adjust", s.BaseURL, id),
		bytes.NewReader(body),
	)
	req.Header.Set("Content-Type", "application/json")
	res, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrInsufficientStock
	default:
		return fmt.Errorf("adjust stock error: %s", res.Status)
	}
}
