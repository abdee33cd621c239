package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// DefaultSettlementTimeout bounds a settlement call when no timeout is configured.
const DefaultSettlementTimeout = 10 * time.Second

// SettlementNotifier informs the external settlement service of a decision.
type SettlementNotifier interface {
	Confirm(ctx context.Context, transactionID string) error
	Cancel(ctx context.Context, transactionID string) error
}

// SettlementClient calls the settlement service over HTTP. There are no
// retries; a failed call is returned as a *NetworkError.
type SettlementClient struct {
	confirmURL string
	cancelURL  string
	httpClient *http.Client
}

// NewSettlementClient creates a new SettlementClient.
func NewSettlementClient(confirmURL, cancelURL string, timeout time.Duration) *SettlementClient {
	if timeout <= 0 {
		timeout = DefaultSettlementTimeout
	}
	return &SettlementClient{
		confirmURL: confirmURL,
		cancelURL:  cancelURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// settlementRequest is the body sent to both endpoints.
type settlementRequest struct {
	TransactionID string `json:"transaction_id"`
}

// Confirm handles POST {confirm endpoint}
func (c *SettlementClient) Confirm(ctx context.Context, transactionID string) error {
	return c.post(ctx, "confirm", c.confirmURL, transactionID)
}

// Cancel handles POST {cancel endpoint}
func (c *SettlementClient) Cancel(ctx context.Context, transactionID string) error {
	return c.post(ctx, "cancel", c.cancelURL, transactionID)
}

func (c *SettlementClient) post(ctx context.Context, op, url, transactionID string) error {
	fail := func(status int, err error) error {
		return &NetworkError{Op: op, TransactionID: transactionID, StatusCode: status, Err: err}
	}

	body, err := json.Marshal(settlementRequest{TransactionID: transactionID})
	if err != nil {
		return fail(0, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fail(0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(0, fmt.Errorf("http do: %w", err))
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(resp.StatusCode, fmt.Errorf("settlement service returned %d", resp.StatusCode))
	}
	return nil
}
