package listing

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DateLayout is the format of check-in and check-out dates.
const DateLayout = "2006-01-02"

// DefaultCurrency is used when a request names no currency.
const DefaultCurrency = "USD"

// Request identifies one listing lookup.
type Request struct {
	URL      string `json:"url"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Currency string `json:"currency"`
}

// NewRequest validates and normalizes lookup parameters. An empty currency
// becomes defaultCurrency; currencies are upper-cased.
func NewRequest(listingURL, checkIn, checkOut, currency, defaultCurrency string) (Request, error) {
	listingURL = strings.TrimSpace(listingURL)
	if listingURL == "" {
		return Request{}, fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	u, err := url.Parse(listingURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Request{}, fmt.Errorf("%w: url must be an absolute http(s) URL", ErrInvalidRequest)
	}

	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return Request{}, fmt.Errorf("%w: invalid check_in, expected YYYY-MM-DD", ErrInvalidRequest)
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return Request{}, fmt.Errorf("%w: invalid check_out, expected YYYY-MM-DD", ErrInvalidRequest)
	}
	if !out.After(in) {
		return Request{}, fmt.Errorf("%w: check_out must be after check_in", ErrInvalidRequest)
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = strings.ToUpper(defaultCurrency)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	if !isCurrencyCode(currency) {
		return Request{}, fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidRequest)
	}

	return Request{
		URL:      listingURL,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Currency: currency,
	}, nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
