package listing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/domain"
)

// TotalPriceLabel is the line item of a price quote holding the stay total.
const TotalPriceLabel = "Total before taxes"

// Occupancy holds the counts parsed from a listing's sub-description.
// Either all three fields are set or none are.
type Occupancy struct {
	Beds     *int
	Baths    *float64
	Bedrooms *int
}

// ParseOccupancy reads bedroom, bed and bath counts from descriptor strings
// ordered as guests, bedrooms, beds, baths (e.g. "2 bedrooms"). The order is
// positional; nothing in the strings themselves is checked against it.
func ParseOccupancy(items []string) Occupancy {
	if len(items) < 4 {
		return Occupancy{}
	}

	bedrooms, err := leadingInt(items[1])
	if err != nil {
		return Occupancy{}
	}
	beds, err := leadingInt(items[2])
	if err != nil {
		return Occupancy{}
	}
	baths, err := leadingFloat(items[3])
	if err != nil {
		return Occupancy{}
	}

	return Occupancy{Beds: &beds, Baths: &baths, Bedrooms: &bedrooms}
}

func leadingToken(s string) (string, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", errors.New("empty descriptor")
	}
	return fields[0], nil
}

func leadingInt(s string) (int, error) {
	tok, err := leadingToken(s)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(tok)
}

// leadingFloat accepts both "1.5" and "1,5".
func leadingFloat(s string) (float64, error) {
	tok, err := leadingToken(s)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.Replace(tok, ",", ".", 1), 64)
}

// SubDescriptionItems returns details.sub_description.items as strings.
// Non-string items become empty strings so positions are preserved.
func SubDescriptionItems(details domain.ListingDetails) []string {
	items := getSlice(getMap(details, "sub_description"), "items")
	return lo.Map(items, func(v any, _ int) string {
		s, _ := v.(string)
		return s
	})
}

// StayBounds returns the minimum and maximum nights from the first condition
// range of the first calendar month. Each is nil if absent.
func StayBounds(details domain.ListingDetails) (minNights, maxNights *int) {
	month := firstMap(getSlice(details, "calendar"))
	condition := firstMap(getSlice(month, "conditionRanges"))
	conditions := getMap(condition, "conditions")
	return getInt(conditions, "minNights"), getInt(conditions, "maxNights")
}

// TotalPrice parses the stay total from a price quote. Currency prefixes and
// thousands separators are dropped ("R$ 1,234.00" is 1234).
func TotalPrice(quote domain.PriceQuote) (float64, error) {
	raw, ok := getMap(quote, "details")[TotalPriceLabel]
	if !ok {
		return 0, &ParseError{Field: "total price", Err: fmt.Errorf("quote has no %q line item", TotalPriceLabel)}
	}

	switch v := raw.(type) {
	case float64:
		return v, nil
	case string:
		amount, err := parseAmount(v)
		if err != nil {
			return 0, &ParseError{Field: "total price", Value: v, Err: err}
		}
		return amount.InexactFloat64(), nil
	default:
		return 0, &ParseError{Field: "total price", Value: fmt.Sprint(v), Err: fmt.Errorf("unexpected type %T", v)}
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return decimal.Decimal{}, errors.New("empty amount")
	}
	tok := strings.ReplaceAll(fields[len(fields)-1], ",", "")
	tok = strings.TrimLeftFunc(tok, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '-' && r != '.'
	})
	return decimal.NewFromString(tok)
}

// LocationName returns the title of the first location description, or "".
func LocationName(details domain.ListingDetails) string {
	return getString(firstMap(getSlice(details, "location_descriptions")), "title")
}

// Coordinates returns the listing's latitude and longitude.
func Coordinates(details domain.ListingDetails) (latitude, longitude *float64) {
	coords := getMap(details, "coordinates")
	return getFloat(coords, "latitude"), getFloat(coords, "longitude")
}

// GuestSatisfaction returns the overall guest rating.
func GuestSatisfaction(details domain.ListingDetails) *float64 {
	return getFloat(getMap(details, "rating"), "guest_satisfaction")
}

// ListingName returns the name the listing carries in its own details.
func ListingName(details domain.ListingDetails) string {
	return getString(pdpListing(details), "name")
}

// FirstPictureURL returns the first picture of the listing, or "".
func FirstPictureURL(details domain.ListingDetails) string {
	pictures := getSlice(pdpListing(details), "picture_urls")
	if len(pictures) == 0 {
		return ""
	}
	s, _ := pictures[0].(string)
	return s
}

func pdpListing(details domain.ListingDetails) map[string]any {
	return getMap(getMap(details, "pdp_listing_detail"), "listing")
}

// Lookups below are nil-safe: a missing or mistyped link yields a zero value.

func getMap(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func getSlice(m map[string]any, key string) []any {
	v, _ := m[key].([]any)
	return v
}

func getString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func firstMap(items []any) map[string]any {
	if len(items) == 0 {
		return nil
	}
	v, _ := items[0].(map[string]any)
	return v
}

func getFloat(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	default:
		return nil
	}
}

func getInt(m map[string]any, key string) *int {
	f := getFloat(m, key)
	if f == nil || *f != math.Trunc(*f) {
		return nil
	}
	n := int(*f)
	return &n
}
