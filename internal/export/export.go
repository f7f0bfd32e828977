package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/domain"
	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/listing"
)

// SheetName is the sheet every writer fills.
const SheetName = "Listings"

// maxConcurrentLookups bounds the lookups an export runs at once.
const maxConcurrentLookups = 4

// ErrNothingToExport is returned when every lookup of a batch failed.
var ErrNothingToExport = errors.New("no listing could be aggregated")

// Row is one exported listing together with the stay it was priced for.
type Row struct {
	Request listing.Request
	Listing domain.AggregatedListing
}

// SheetWriter writes listing rows to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, rows []Row) error
}

// Lookuper aggregates a single listing.
type Lookuper interface {
	Lookup(ctx context.Context, req listing.Request) (domain.AggregatedListing, error)
}

// Summary reports the outcome of an export.
type Summary struct {
	Written int
	Failed  int
}

// Service aggregates a batch of listings and delegates writing to a SheetWriter.
type Service struct {
	listings Lookuper
	writer   SheetWriter
}

// NewService creates a new export Service.
func NewService(listings Lookuper, writer SheetWriter) *Service {
	return &Service{listings: listings, writer: writer}
}

// Export looks up every request and writes the successful ones, in input
// order. Failed lookups are logged and skipped.
func (s *Service) Export(ctx context.Context, reqs []listing.Request) (Summary, error) {
	results := make([]*Row, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, req := range reqs {
		g.Go(func() error {
			result, err := s.listings.Lookup(gctx, req)
			if err != nil {
				slog.Warn("export: lookup failed, skipping", "url", req.URL, "error", err)
				return nil
			}
			results[i] = &Row{Request: req, Listing: result}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	rows := lo.FilterMap(results, func(r *Row, _ int) (Row, bool) {
		if r == nil {
			return Row{}, false
		}
		return *r, true
	})
	summary := Summary{Written: len(rows), Failed: len(reqs) - len(rows)}
	if len(rows) == 0 && len(reqs) > 0 {
		return summary, ErrNothingToExport
	}

	if err := s.writer.Write(ctx, rows); err != nil {
		return summary, fmt.Errorf("writing rows: %w", err)
	}
	return summary, nil
}

// header lists the exported columns, A through N.
var header = []any{
	"URL", "Check-in", "Check-out", "Currency",
	"Name", "Total Price", "Beds", "Baths", "Bedrooms",
	"Location", "Guest Satisfaction", "Min Nights", "Max Nights", "Image",
}

// buildValues renders rows as a header line followed by one line per listing.
// Absent values become empty cells.
func buildValues(rows []Row) [][]any {
	data := make([][]any, 0, len(rows)+1)
	data = append(data, header)
	return append(data, lo.Map(rows, func(r Row, _ int) []any {
		l := r.Listing
		return []any{
			r.Request.URL, r.Request.CheckIn, r.Request.CheckOut, r.Request.Currency,
			l.Name, l.TotalPrice,
			cell(l.Beds), cell(l.Baths), cell(l.Bedrooms),
			l.LocationName, cell(l.GuestSatisfaction),
			cell(l.MinNights), cell(l.MaxNights),
			l.ImageURL,
		}
	})...)
}

func cell[T any](v *T) any {
	if v == nil {
		return ""
	}
	return *v
}
