package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/corpix/uarand"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/domain"
)

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a listing page is read.
const maxBodyBytes = 8 << 20

/*
Scraper fetches a listing's public page and reads two fields from it.

  - Every request carries a randomly chosen browser user agent
  - Non-2xx responses are failures
  - Redirects are followed by the http.Client defaults
  - The body is not required to declare an HTML content type
*/
type Scraper struct {
	httpClient *http.Client
	userAgent  func() string
}

// NewScraper creates a Scraper whose fetches are bounded by timeout.
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  uarand.GetRandom,
	}
}

// Scrape fetches pageURL and extracts its page metadata.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (domain.PageMetadata, error) {
	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return domain.PageMetadata{}, err
	}
	return Parse(bytes.NewReader(body))
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &Error{Cause: CauseNetworkFailure, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	for key, value := range requestHeaders(s.userAgent()) {
		req.Header.Set(key, value)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &Error{Cause: CauseTimeout, Message: err.Error()}
		}
		return nil, &Error{Cause: CauseNetworkFailure, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Cause: CauseBadStatus, Message: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, &Error{Cause: CauseTimeout, Message: err.Error()}
		}
		return nil, &Error{Cause: CauseReadBody, Message: err.Error()}
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Accept-Encoding is left to the transport so gzip bodies are decoded.
func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"DNT":             "1",
	}
}
