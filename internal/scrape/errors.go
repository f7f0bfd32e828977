package scrape

import "fmt"

type ErrorCause string

const (
	CauseTimeout        ErrorCause = "timeout"
	CauseNetworkFailure ErrorCause = "network issues"
	CauseBadStatus      ErrorCause = "non-2xx status"
	CauseReadBody       ErrorCause = "failed to read response body"
	CauseParse          ErrorCause = "unparsable document"
)

// Error describes why a page could not be scraped.
type Error struct {
	Cause   ErrorCause
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("scrape error: %s: %s", e.Cause, e.Message)
}
