package listing

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/cache"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/domain"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/obs"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/provider"
)

// Cache names, used in metrics.
const (
	CachePrice        = "price"
	CachePageMetadata = "page_metadata"
	CacheDetails      = "details"
)

// Provider is the listing data provider.
type Provider interface {
	GetMetadata(ctx context.Context, listingURL string) (domain.ListingSession, error)
	GetDetails(ctx context.Context, listingURL, currency string) (domain.ListingDetails, error)
	GetPrice(ctx context.Context, req provider.PriceRequest) (domain.PriceQuote, error)
}

// PageScraper reads page metadata from a listing's public page.
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string) (domain.PageMetadata, error)
}

// Recorder receives every successful lookup.
type Recorder interface {
	Save(ctx context.Context, req Request, result domain.AggregatedListing) error
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	CacheTTL         time.Duration
	DetailsCacheSize int
	Now              func() time.Time
	Metrics          *obs.Metrics
	History          Recorder
}

// Service aggregates listing details, price quotes and page metadata.
// It owns the process-wide caches; construct it once and share it.
type Service struct {
	provider Provider
	scraper  PageScraper
	prices   *cache.TTL[domain.PriceQuote]
	pages    *cache.TTL[domain.PageMetadata]
	details  *cache.Memo[domain.ListingDetails]
	metrics  *obs.Metrics
	history  Recorder
}

// NewService creates a Service with empty caches.
func NewService(p Provider, scraper PageScraper, opts Options) (*Service, error) {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	size := opts.DetailsCacheSize
	if size <= 0 {
		size = cache.DefaultMemoSize
	}
	var cacheOpts []cache.Option
	if opts.Now != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(opts.Now))
	}

	details, err := cache.NewMemo[domain.ListingDetails](size)
	if err != nil {
		return nil, err
	}

	return &Service{
		provider: p,
		scraper:  scraper,
		prices:   cache.NewTTL[domain.PriceQuote](ttl, cacheOpts...),
		pages:    cache.NewTTL[domain.PageMetadata](ttl, cacheOpts...),
		details:  details,
		metrics:  opts.Metrics,
		history:  opts.History,
	}, nil
}

// Lookup aggregates one listing for a stay.
//
// The metadata fetch always runs and precedes the price lookup; the details
// and page-metadata lookups run alongside it. A failed metadata, details or
// price call aborts the lookup, a failed page scrape does not.
func (s *Service) Lookup(ctx context.Context, req Request) (domain.AggregatedListing, error) {
	s.metrics.IncRequests()

	var (
		quote   domain.PriceQuote
		details domain.ListingDetails
		page    domain.PageMetadata
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		session, err := s.fetchMetadata(gctx, req.URL)
		if err != nil {
			return err
		}
		quote, err = s.fetchPrice(gctx, session, req)
		return err
	})
	g.Go(func() error {
		var err error
		details, err = s.fetchDetails(gctx, req.URL, req.Currency)
		return err
	})
	g.Go(func() error {
		page = s.fetchPageMetadata(gctx, req.URL)
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.AggregatedListing{}, err
	}

	result, err := Compose(page, details, quote)
	if err != nil {
		return domain.AggregatedListing{}, err
	}

	if s.history != nil {
		if err := s.history.Save(ctx, req, result); err != nil {
			slog.Warn("failed to record lookup", "url", req.URL, "error", err)
		}
	}
	return result, nil
}

// Sweep drops expired entries from the TTL caches and reports how many were
// removed from each.
func (s *Service) Sweep() map[string]int {
	return map[string]int{
		CachePrice:        s.prices.Sweep(),
		CachePageMetadata: s.pages.Sweep(),
	}
}

func (s *Service) fetchMetadata(ctx context.Context, listingURL string) (domain.ListingSession, error) {
	start := time.Now()
	session, err := s.provider.GetMetadata(ctx, listingURL)
	s.metrics.ObserveUpstream(OpMetadata, time.Since(start), err)
	if err != nil {
		return domain.ListingSession{}, &UpstreamError{Op: OpMetadata, Err: err}
	}
	return session, nil
}

func (s *Service) fetchDetails(ctx context.Context, listingURL, currency string) (domain.ListingDetails, error) {
	details, hit, err := s.details.GetOrCompute(cache.DetailsKey(listingURL, currency), func() (domain.ListingDetails, error) {
		start := time.Now()
		d, err := s.provider.GetDetails(ctx, listingURL, currency)
		s.metrics.ObserveUpstream(OpDetails, time.Since(start), err)
		return d, err
	})
	if err != nil {
		return nil, &UpstreamError{Op: OpDetails, Err: err}
	}
	s.metrics.ObserveCacheLookup(CacheDetails, hit)
	return details, nil
}

func (s *Service) fetchPrice(ctx context.Context, session domain.ListingSession, req Request) (domain.PriceQuote, error) {
	in := session.PriceInput
	key := cache.PriceKey(in.ProductID, req.CheckIn, req.CheckOut, req.Currency)
	if cached, ok := s.prices.Get(key); ok {
		s.metrics.ObserveCacheLookup(CachePrice, true)
		return cached, nil
	}
	s.metrics.ObserveCacheLookup(CachePrice, false)

	start := time.Now()
	quote, err := s.provider.GetPrice(ctx, provider.PriceRequest{
		ProductID:    in.ProductID,
		ImpressionID: in.ImpressionID,
		APIKey:       in.APIKey,
		Currency:     req.Currency,
		Cookies:      session.Cookies,
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
	})
	s.metrics.ObserveUpstream(OpPrice, time.Since(start), err)
	if err != nil {
		return nil, &UpstreamError{Op: OpPrice, Err: err}
	}

	s.prices.Put(key, quote)
	return quote, nil
}

// fetchPageMetadata never fails: scrape errors are logged and collapse to
// empty metadata, which is not cached.
func (s *Service) fetchPageMetadata(ctx context.Context, listingURL string) domain.PageMetadata {
	key := cache.MetadataKey(listingURL)
	if cached, ok := s.pages.Get(key); ok {
		s.metrics.ObserveCacheLookup(CachePageMetadata, true)
		return cached
	}
	s.metrics.ObserveCacheLookup(CachePageMetadata, false)

	start := time.Now()
	meta, err := s.scraper.Scrape(ctx, listingURL)
	s.metrics.ObserveUpstream(OpPageMetadata, time.Since(start), err)
	if err != nil {
		s.metrics.IncScrapeDegraded()
		slog.Warn("page metadata unavailable, falling back to listing data", "url", listingURL, "error", err)
		return domain.PageMetadata{}
	}

	s.pages.Put(key, meta)
	return meta
}
