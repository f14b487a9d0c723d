// Package client talks to the ledger API and maintains a local,
// identity-scoped view of the caller's collections.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ledgerd/internal/core"
)

// TransactionInput is the client-controlled part of a record sent to the
// create endpoints.
type TransactionInput struct {
	Title       string     `json:"title"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Date        core.Date  `json:"date"`
}

// APIError is a non-2xx response with its server-provided message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client is a thin HTTP client for the ledger API. The bearer token is
// supplied per call; the Cache owns which identity is current.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func listPath(kind core.Kind) string {
	if kind == core.KindIncome {
		return "/api/v1/get-incomes"
	}
	return "/api/v1/get-expenses"
}

func addPath(kind core.Kind) string {
	if kind == core.KindIncome {
		return "/api/v1/add-income"
	}
	return "/api/v1/add-expense"
}

func deletePath(kind core.Kind, id string) string {
	if kind == core.KindIncome {
		return "/api/v1/delete-income/" + id
	}
	return "/api/v1/delete-expense/" + id
}

// List fetches the caller's owned records of the given kind.
func (c *Client) List(ctx context.Context, token string, kind core.Kind) ([]core.Transaction, error) {
	req, err := c.newRequest(ctx, http.MethodGet, listPath(kind), token, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var txs []core.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		return nil, fmt.Errorf("decode %ss: %w", kind, err)
	}
	return txs, nil
}

// Create submits a new record.
func (c *Client) Create(ctx context.Context, token string, kind core.Kind, input TransactionInput) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, addPath(kind), token, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("create %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// Delete removes a record by id.
func (c *Client) Delete(ctx context.Context, token string, kind core.Kind, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, deletePath(kind, id), token, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body []byte) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func apiError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return &APIError{StatusCode: resp.StatusCode, Message: body.Message}
}
