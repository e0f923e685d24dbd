package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/picflux/picflux/internal/pkg/env"
)

const (
	defaultCreemAPIURL     = "https://api.creem.io"
	defaultCreemTestAPIURL = "https://test-api.creem.io"
)

// CreemClient talks to the Creem payment API.
type CreemClient struct {
	APIKey  string
	BaseURL string

	HTTPClient *http.Client
}

// CreemError carries the provider's status code and message so callers can
// surface them unchanged.
type CreemError struct {
	StatusCode int
	Message    string
}

func (e *CreemError) Error() string {
	return fmt.Sprintf("creem api error: status=%d message=%s", e.StatusCode, e.Message)
}

// CheckoutSession is the provider response for a created checkout. The
// redirect URL has been observed under several field names.
type CheckoutSession struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	CheckoutURL string `json:"checkout_url"`
	Link        string `json:"link"`
}

// RedirectURL returns the hosted checkout URL regardless of which field the
// provider used.
func (s *CheckoutSession) RedirectURL() string {
	return firstNonEmpty(s.URL, s.CheckoutURL, s.Link)
}

func NewCreemClientFromEnv() *CreemClient {
	baseURL := defaultCreemAPIURL
	if env.GetEnv("CREEM_TEST_MODE", "false") == "true" {
		baseURL = defaultCreemTestAPIURL
	}
	if override := strings.TrimSpace(env.GetEnv("CREEM_API_URL", "")); override != "" {
		baseURL = override
	}

	return &CreemClient{
		APIKey:  strings.TrimSpace(env.GetEnv("CREEM_API_KEY", "")),
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// CreateCheckout creates a hosted checkout session for the given product.
// The metadata travels opaquely through the provider and comes back on the
// completion webhook. Creation is deliberately single-shot: a blind retry
// could mint a second session, so errors are surfaced to the caller instead.
func (c *CreemClient) CreateCheckout(ctx context.Context, productID string, metadata map[string]string) (*CheckoutSession, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("CREEM_API_KEY is not configured")
	}
	if strings.TrimSpace(productID) == "" {
		return nil, errors.New("product id is required")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"product_id": productID,
		"metadata":   metadata,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/checkouts", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = "failed to create checkout session"
		}
		return nil, &CreemError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, err
	}
	if session.RedirectURL() == "" {
		return nil, errors.New("creem checkout response contained no redirect url")
	}
	return &session, nil
}
