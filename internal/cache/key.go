package cache

import (
	"strconv"
	"strings"
)

// PriceKey identifies a price quote request. Components are length-prefixed
// ("<len>:<value>|"), so distinct tuples always yield distinct keys whatever
// characters the components contain.
func PriceKey(productID, checkIn, checkOut, currency string) string {
	return encodeKey(productID, checkIn, checkOut, currency)
}

// MetadataKey identifies a page-metadata scrape.
func MetadataKey(url string) string {
	return url
}

// DetailsKey identifies a listing-details lookup.
func DetailsKey(url, currency string) string {
	return encodeKey(url, currency)
}

func encodeKey(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
		b.WriteByte('|')
	}
	return b.String()
}
