package tokenadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stakegov/contexts/token-governance/gov-engine/ports"
)

// Client queries the external token contract's balance endpoint over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type balanceResponse struct {
	Balance uint64 `json:"balance"`
}

func (c *Client) Balance(ctx context.Context, holder string) (uint64, error) {
	endpoint := c.BaseURL + "/balance/" + url.PathEscape(strings.TrimSpace(holder))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("token balance query returned status %d", resp.StatusCode)
	}
	var payload balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}
	return payload.Balance, nil
}

var _ ports.TokenClient = (*Client)(nil)
