package domain

// ListingDetails is the provider's details payload for a listing. Only the
// fields read by the listing extractor are relied upon.
type ListingDetails map[string]any

// PriceQuote is the provider's price payload for a stay.
type PriceQuote map[string]any

// PriceInput holds the transient identifiers that authorize a price call.
type PriceInput struct {
	ProductID    string `json:"product_id"`
	ImpressionID string `json:"impression_id"`
	APIKey       string `json:"api_key"`
}

// ListingSession is the result of a metadata fetch for a listing URL.
type ListingSession struct {
	Data       map[string]any    `json:"data"`
	PriceInput PriceInput        `json:"price_input"`
	Cookies    map[string]string `json:"cookies"`
}

// PageMetadata holds the fields scraped from a listing's public page.
type PageMetadata struct {
	ImageURL *string `json:"imageUrl,omitempty"`
	Title    *string `json:"title,omitempty"`
}

// AggregatedListing is the normalized lookup result.
// Pointer fields are nil when the upstream data lacks them.
type AggregatedListing struct {
	Name              string   `json:"name"`
	TotalPrice        float64  `json:"total_price"`
	ImageURL          string   `json:"image_url"`
	Beds              *int     `json:"beds"`
	Baths             *float64 `json:"baths"`
	Bedrooms          *int     `json:"bedrooms"`
	LocationName      string   `json:"location_name"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	GuestSatisfaction *float64 `json:"guest_satisfaction"`
	MinNights         *int     `json:"min_nights"`
	MaxNights         *int     `json:"max_nights"`
}
