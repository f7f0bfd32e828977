package listing

import (
	"github.com/samber/lo"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/domain"
)

// Compose merges scraped page metadata, listing details and a price quote.
// The scraped title and image win over the listing's own name and first
// picture; every other field comes from the details as-is.
func Compose(page domain.PageMetadata, details domain.ListingDetails, quote domain.PriceQuote) (domain.AggregatedListing, error) {
	total, err := TotalPrice(quote)
	if err != nil {
		return domain.AggregatedListing{}, err
	}

	occupancy := ParseOccupancy(SubDescriptionItems(details))
	minNights, maxNights := StayBounds(details)
	latitude, longitude := Coordinates(details)

	return domain.AggregatedListing{
		Name:              lo.CoalesceOrEmpty(lo.FromPtr(page.Title), ListingName(details)),
		TotalPrice:        total,
		ImageURL:          lo.CoalesceOrEmpty(lo.FromPtr(page.ImageURL), FirstPictureURL(details)),
		Beds:              occupancy.Beds,
		Baths:             occupancy.Baths,
		Bedrooms:          occupancy.Bedrooms,
		LocationName:      LocationName(details),
		Latitude:          latitude,
		Longitude:         longitude,
		GuestSatisfaction: GuestSatisfaction(details),
		MinNights:         minNights,
		MaxNights:         maxNights,
	}, nil
}
