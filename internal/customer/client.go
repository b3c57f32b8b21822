package customer

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"
)

// Client checks customer ids against the accounts service. A sale may be
// anonymous, so the ledger only consults this when a customer id is present.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a Client against the accounts service base URL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(5 * time.Second),
		logger: logger,
	}
}

// Exists reports whether the customer id is known to the accounts service.
func (c *Client) Exists(id int64) (bool, error) {
	res, err := c.http.R().Get(fmt.Sprintf("/customers/%d", id))
	if err != nil {
		return false, fmt.Errorf("error making request to customer API: %w", err)
	}

	switch res.StatusCode() {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		c.logger.Warn("unexpected customer API status",
			zap.Int64("customer_id", id),
			zap.Int("status", res.StatusCode()),
		)
		return false, fmt.Errorf("customer API returned unexpected status: %d", res.StatusCode())
	}
}

// Close releases the underlying HTTP client resources.
func (c *Client) Close() error {
	return c.http.Close()
}
