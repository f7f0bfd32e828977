package listing

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/domain"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/provider"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/scrape"
)

type mockProvider struct {
	metadataCalls atomic.Int32
	detailsCalls  atomic.Int32
	priceCalls    atomic.Int32

	details     domain.ListingDetails
	detailsErr  error
	metadataErr error
	quote       domain.PriceQuote
	priceErr    error

	mu           sync.Mutex
	priceRequest provider.PriceRequest
}

func (m *mockProvider) GetMetadata(_ context.Context, _ string) (domain.ListingSession, error) {
	m.metadataCalls.Add(1)
	if m.metadataErr != nil {
		return domain.ListingSession{}, m.metadataErr
	}
	return domain.ListingSession{
		PriceInput: domain.PriceInput{ProductID: "42", ImpressionID: "imp", APIKey: "key"},
		Cookies:    map[string]string{"bev": "cookie"},
	}, nil
}

func (m *mockProvider) GetDetails(_ context.Context, _, _ string) (domain.ListingDetails, error) {
	m.detailsCalls.Add(1)
	return m.details, m.detailsErr
}

func (m *mockProvider) GetPrice(_ context.Context, req provider.PriceRequest) (domain.PriceQuote, error) {
	m.priceCalls.Add(1)
	m.mu.Lock()
	m.priceRequest = req
	m.mu.Unlock()
	return m.quote, m.priceErr
}

type mockScraper struct {
	calls atomic.Int32
	meta  domain.PageMetadata
	err   error
}

func (m *mockScraper) Scrape(_ context.Context, _ string) (domain.PageMetadata, error) {
	m.calls.Add(1)
	return m.meta, m.err
}

type mockRecorder struct {
	mu      sync.Mutex
	saved   []domain.AggregatedListing
	saveErr error
}

func (m *mockRecorder) Save(_ context.Context, _ Request, result domain.AggregatedListing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, result)
	return m.saveErr
}

func newTestProvider(t *testing.T) *mockProvider {
	t.Helper()
	var details domain.ListingDetails
	if err := json.Unmarshal([]byte(fullDetails), &details); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	return &mockProvider{
		details: details,
		quote:   testQuote("$ 480.00"),
	}
}

func newTestScraper() *mockScraper {
	return &mockScraper{meta: domain.PageMetadata{
		Title:    strPtr("Cozy Loft"),
		ImageURL: strPtr("https://img/og.jpg"),
	}}
}

func testRequest() Request {
	return Request{
		URL:      "https://www.airbnb.com/rooms/42",
		CheckIn:  "2025-03-01",
		CheckOut: "2025-03-05",
		Currency: "USD",
	}
}

func TestLookupColdThenWarm(t *testing.T) {
	p := newTestProvider(t)
	sc := newTestScraper()
	svc, err := NewService(p, sc, Options{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	got, err := svc.Lookup(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Cozy Loft" || got.ImageURL != "https://img/og.jpg" || got.TotalPrice != 480 {
		t.Errorf("result = %+v", got)
	}
	if got.Beds == nil || got.MinNights == nil || got.Latitude == nil || got.GuestSatisfaction == nil {
		t.Errorf("expected fully populated record, got %+v", got)
	}

	if n := p.metadataCalls.Load(); n != 1 {
		t.Errorf("metadata calls = %d, want 1", n)
	}
	if n := p.detailsCalls.Load(); n != 1 {
		t.Errorf("details calls = %d, want 1", n)
	}
	if n := p.priceCalls.Load(); n != 1 {
		t.Errorf("price calls = %d, want 1", n)
	}
	if n := sc.calls.Load(); n != 1 {
		t.Errorf("scrape calls = %d, want 1", n)
	}

	again, err := svc.Lookup(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}
	if !reflect.DeepEqual(again, got) {
		t.Errorf("repeat result differs: %+v vs %+v", again, got)
	}
	if n := p.metadataCalls.Load(); n != 2 {
		t.Errorf("metadata calls after repeat = %d, want 2", n)
	}
	if n := p.detailsCalls.Load(); n != 1 {
		t.Errorf("details calls after repeat = %d, want 1", n)
	}
	if n := p.priceCalls.Load(); n != 1 {
		t.Errorf("price calls after repeat = %d, want 1", n)
	}
	if n := sc.calls.Load(); n != 1 {
		t.Errorf("scrape calls after repeat = %d, want 1", n)
	}
}

func TestLookupPassesSessionToPrice(t *testing.T) {
	p := newTestProvider(t)
	svc, _ := NewService(p, newTestScraper(), Options{})

	if _, err := svc.Lookup(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := p.priceRequest
	if req.ProductID != "42" || req.ImpressionID != "imp" || req.APIKey != "key" {
		t.Errorf("price identifiers = %+v", req)
	}
	if req.Cookies["bev"] != "cookie" {
		t.Errorf("cookies = %v", req.Cookies)
	}
	if req.CheckIn != "2025-03-01" || req.CheckOut != "2025-03-05" || req.Currency != "USD" {
		t.Errorf("stay = %+v", req)
	}
}

func TestLookupPriceCacheKeyedOnDates(t *testing.T) {
	p := newTestProvider(t)
	svc, _ := NewService(p, newTestScraper(), Options{})

	first := testRequest()
	second := testRequest()
	second.CheckOut = "2025-03-06"

	for _, req := range []Request{first, second, first} {
		if _, err := svc.Lookup(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := p.priceCalls.Load(); n != 2 {
		t.Errorf("price calls = %d, want 2", n)
	}
}

func TestLookupPriceCacheExpires(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	p := newTestProvider(t)
	sc := newTestScraper()
	svc, _ := NewService(p, sc, Options{CacheTTL: time.Hour, Now: clock})

	if _, err := svc.Lookup(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	now = now.Add(time.Hour)
	mu.Unlock()

	if _, err := svc.Lookup(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := p.priceCalls.Load(); n != 2 {
		t.Errorf("price calls = %d, want 2 after TTL", n)
	}
	if n := sc.calls.Load(); n != 2 {
		t.Errorf("scrape calls = %d, want 2 after TTL", n)
	}
	if n := p.detailsCalls.Load(); n != 1 {
		t.Errorf("details calls = %d, want 1 (no TTL on details)", n)
	}
}

func TestLookupScrapeDegradation(t *testing.T) {
	p := newTestProvider(t)
	sc := &mockScraper{err: &scrape.Error{Cause: scrape.CauseTimeout, Message: "deadline exceeded"}}
	svc, _ := NewService(p, sc, Options{})

	got, err := svc.Lookup(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("scrape failure must not abort lookup: %v", err)
	}
	if got.Name != "Loft Apt" {
		t.Errorf("Name = %q, want listing name fallback", got.Name)
	}
	if got.ImageURL != "https://img/listing.jpg" {
		t.Errorf("ImageURL = %q, want first picture fallback", got.ImageURL)
	}

	// Failed scrapes are not cached.
	if _, err := svc.Lookup(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := sc.calls.Load(); n != 2 {
		t.Errorf("scrape calls = %d, want 2", n)
	}
}

func TestLookupUpstreamFailures(t *testing.T) {
	boom := errors.New("provider unavailable")

	tests := []struct {
		name   string
		mutate func(p *mockProvider)
		wantOp string
	}{
		{"metadata", func(p *mockProvider) { p.metadataErr = boom }, OpMetadata},
		{"details", func(p *mockProvider) { p.detailsErr = boom }, OpDetails},
		{"price", func(p *mockProvider) { p.priceErr = boom }, OpPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t)
			tt.mutate(p)
			svc, _ := NewService(p, newTestScraper(), Options{})

			_, err := svc.Lookup(context.Background(), testRequest())

			var upErr *UpstreamError
			if !errors.As(err, &upErr) {
				t.Fatalf("err = %v, want *UpstreamError", err)
			}
			if upErr.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q", upErr.Op, tt.wantOp)
			}
			if !errors.Is(err, boom) {
				t.Errorf("err should wrap the provider error")
			}
		})
	}
}

func TestLookupMetadataFailureSkipsPrice(t *testing.T) {
	p := newTestProvider(t)
	p.metadataErr = errors.New("no session")
	svc, _ := NewService(p, newTestScraper(), Options{})

	if _, err := svc.Lookup(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error")
	}
	if n := p.priceCalls.Load(); n != 0 {
		t.Errorf("price calls = %d, want 0", n)
	}
}

func TestLookupFailedDetailsNotMemoized(t *testing.T) {
	p := newTestProvider(t)
	p.detailsErr = errors.New("flaky")
	svc, _ := NewService(p, newTestScraper(), Options{})

	if _, err := svc.Lookup(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error")
	}

	p.detailsErr = nil
	if _, err := svc.Lookup(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := p.detailsCalls.Load(); n != 2 {
		t.Errorf("details calls = %d, want 2", n)
	}
}

func TestLookupParseFailure(t *testing.T) {
	p := newTestProvider(t)
	p.quote = domain.PriceQuote{"details": map[string]any{}}
	svc, _ := NewService(p, newTestScraper(), Options{})

	_, err := svc.Lookup(context.Background(), testRequest())

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

func TestLookupRecordsHistory(t *testing.T) {
	rec := &mockRecorder{}
	svc, _ := NewService(newTestProvider(t), newTestScraper(), Options{History: rec})

	if _, err := svc.Lookup(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.saved) != 1 {
		t.Fatalf("saved = %d, want 1", len(rec.saved))
	}
	if rec.saved[0].Name != "Cozy Loft" {
		t.Errorf("saved name = %q", rec.saved[0].Name)
	}
}

func TestLookupHistoryFailureIgnored(t *testing.T) {
	rec := &mockRecorder{saveErr: errors.New("db down")}
	svc, _ := NewService(newTestProvider(t), newTestScraper(), Options{History: rec})

	if _, err := svc.Lookup(context.Background(), testRequest()); err != nil {
		t.Fatalf("history failure must not fail lookup: %v", err)
	}
}

func TestLookupConcurrentRequests(t *testing.T) {
	p := newTestProvider(t)
	svc, _ := NewService(p, newTestScraper(), Options{})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Lookup(context.Background(), testRequest()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	if n := p.metadataCalls.Load(); n != 20 {
		t.Errorf("metadata calls = %d, want 20", n)
	}
}

func TestSweep(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	svc, _ := NewService(newTestProvider(t), newTestScraper(), Options{CacheTTL: time.Minute, Now: clock})
	if _, err := svc.Lookup(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if removed := svc.Sweep(); removed[CachePrice] != 0 || removed[CachePageMetadata] != 0 {
		t.Errorf("Sweep() before expiry = %v, want zeros", removed)
	}

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	removed := svc.Sweep()
	if removed[CachePrice] != 1 || removed[CachePageMetadata] != 1 {
		t.Errorf("Sweep() after expiry = %v, want one per cache", removed)
	}
}
