package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Client reads the debugger's REST API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client { return &Client{BaseURL: baseURL, HTTP: http.DefaultClient} }

type Message struct {
	ID            string `json:"id"`
	TransactionID string `json:"transactionId"`
	MessageID     string `json:"messageId"`
	Type          string `json:"type"`
	Action        string `json:"action"`
	Status        string `json:"status"`
	ParentID      string `json:"parentId,omitempty"`
	IsOrphan      bool   `json:"isOrphan,omitempty"`
	Duration      *int64 `json:"duration,omitempty"`
}

type Transaction struct {
	ID       string    `json:"id"`
	Status   string    `json:"status"`
	Messages []Message `json:"messages"`
}

func (c *Client) ListTransactions(ctx context.Context) ([]Transaction, int, error) {
	var out struct {
		Items []Transaction `json:"items"`
		Total int           `json:"total"`
	}
	if err := c.get(ctx, "/api/transactions", &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

func (c *Client) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	var out Transaction
	err := c.get(ctx, "/api/transactions/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) Orphans(ctx context.Context) ([]Message, error) {
	var out struct {
		Items []Message `json:"items"`
	}
	if err := c.get(ctx, "/api/orphans", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
