// Package razorpay is a minimal client for the Razorpay Orders API and the
// checkout signature handshake. Only the parts of the API the storefront
// uses are modeled.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

// DefaultBaseURL is the production Razorpay API endpoint.
const DefaultBaseURL = "https://api.razorpay.com"

// OrderRequest is the payload for creating an order. Amount is in minor
// currency units (paise).
type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order is the provider-side order record returned by the Orders API.
// It is passed through to the storefront client verbatim.
type Order struct {
	ID         string            `json:"id"`
	Entity     string            `json:"entity"`
	Amount     int64             `json:"amount"`
	AmountPaid int64             `json:"amount_paid"`
	AmountDue  int64             `json:"amount_due"`
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	Status     string            `json:"status"`
	Attempts   int               `json:"attempts"`
	Notes      map[string]string `json:"notes,omitempty"`
	CreatedAt  int64             `json:"created_at"`
}

// APIError is a non-2xx response from the Razorpay API.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay: %s (%s, http %d)", e.Description, e.Code, e.StatusCode)
}

// Config holds the credentials and endpoint for the API client.
type Config struct {
	// KeyID is the publishable key, also used as the basic auth username.
	KeyID string
	// KeySecret is the server-side secret. Never exposed to the browser.
	KeySecret string
	// BaseURL overrides DefaultBaseURL, mainly for tests.
	BaseURL string
	// Transport overrides the default HTTP transport, e.g. for tracing.
	Transport http.RoundTripper
}

// Client calls the Razorpay REST API using basic auth.
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

// NewClient creates a Client from the given config.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   baseURL,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: cfg.Transport,
		},
	}
}

// CreateOrder creates an order via POST /v1/orders and returns the
// provider's order record.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "call orders api")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	return &order, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Description = envelope.Error.Description
	}
	if apiErr.Description == "" {
		apiErr.Description = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
