package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/domain"
)

// StatusError is returned when the provider answers with a non-200 status.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client talks to the listing provider service over HTTP/JSON.
// Calls are never retried.
type Client struct {
	baseURL    string
	domain     string
	httpClient *http.Client
}

// NewClient creates a provider client. detailsDomain is the listing site
// domain the provider should query details on.
func NewClient(baseURL, detailsDomain string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		domain:     detailsDomain,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PriceRequest carries everything the provider needs to quote a stay.
type PriceRequest struct {
	ProductID    string            `json:"product_id"`
	ImpressionID string            `json:"impression_id"`
	APIKey       string            `json:"api_key"`
	Currency     string            `json:"currency"`
	Cookies      map[string]string `json:"cookies"`
	CheckIn      string            `json:"check_in"`
	CheckOut     string            `json:"check_out"`
}

// GetMetadata fetches the session data for a listing URL, including the
// identifiers required by GetPrice.
func (c *Client) GetMetadata(ctx context.Context, listingURL string) (domain.ListingSession, error) {
	q := url.Values{}
	q.Set("url", listingURL)

	var session domain.ListingSession
	if err := c.getJSON(ctx, "/metadata?"+q.Encode(), &session); err != nil {
		return domain.ListingSession{}, err
	}
	if session.PriceInput.ProductID == "" {
		return domain.ListingSession{}, fmt.Errorf("metadata for %s has no product_id", listingURL)
	}
	return session, nil
}

// GetDetails fetches the static details of a listing.
func (c *Client) GetDetails(ctx context.Context, listingURL, currency string) (domain.ListingDetails, error) {
	q := url.Values{}
	q.Set("url", listingURL)
	q.Set("currency", currency)
	if c.domain != "" {
		q.Set("domain", c.domain)
	}

	var details domain.ListingDetails
	if err := c.getJSON(ctx, "/details?"+q.Encode(), &details); err != nil {
		return nil, err
	}
	return details, nil
}

// GetPrice quotes a stay.
func (c *Client) GetPrice(ctx context.Context, req PriceRequest) (domain.PriceQuote, error) {
	var quote domain.PriceQuote
	if err := c.postJSON(ctx, "/price", req, &quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, path, dest)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, dest)
}

func (c *Client) do(req *http.Request, path string, dest any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, URL: req.URL.String(), Body: string(body)}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing JSON from %s: %w", path, err)
	}
	return nil
}
