package scrape

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pedrofracassi/airbnb-to-google-sheets/internal/domain"
)

// titleSeparator splits the listing title from the site suffix in <title>.
const titleSeparator = " - "

// Parse extracts the og:image URL (without its query string) and the
// listing title from an HTML document. Missing tags yield nil fields.
func Parse(r io.Reader) (domain.PageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.PageMetadata{}, &Error{Cause: CauseParse, Message: err.Error()}
	}

	var meta domain.PageMetadata

	if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && content != "" {
		image, _, _ := strings.Cut(content, "?")
		if image != "" {
			meta.ImageURL = &image
		}
	}

	if title := doc.Find("title").First(); title.Length() > 0 {
		name, _, _ := strings.Cut(title.Text(), titleSeparator)
		name = strings.TrimSpace(name)
		if name != "" {
			meta.Title = &name
		}
	}

	return meta, nil
}
