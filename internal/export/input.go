package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/listing"
)

// ReadRequests parses url,check_in,check_out[,currency] lines. A leading
// header line starting with "url" and blank lines are skipped.
func ReadRequests(r io.Reader, defaultCurrency string) ([]listing.Request, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var reqs []listing.Request
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "url") {
			continue
		}
		if len(record) < 3 || len(record) > 4 {
			return nil, fmt.Errorf("line %d: expected url,check_in,check_out[,currency], got %d fields", line, len(record))
		}

		currency := ""
		if len(record) == 4 {
			currency = record[3]
		}
		req, err := listing.NewRequest(record[0], strings.TrimSpace(record[1]), strings.TrimSpace(record[2]), currency, defaultCurrency)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
