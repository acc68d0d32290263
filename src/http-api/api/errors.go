package api

import (
	"errors"
	"fmt"

	"github.com/jack-barr3tt/board-proxy/src/common/types"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// ValidationError is a missing or malformed request parameter.
type ValidationError struct {
	Param string
	Usage string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing %q parameter", e.Param)
}

// NotFoundError carries up to five near matches for an unknown station.
type NotFoundError struct {
	Identifier  string
	Suggestions []types.Station
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("station %q not found", e.Identifier)
}

// BoardError wraps a fetch or format failure for a known station.
type BoardError struct {
	Station   types.Station
	SourceURL string
	Attempts  int
	Err       error
}

func (e *BoardError) Error() string {
	return fmt.Sprintf("board for %s: %v", e.Station.Slug, e.Err)
}

func (e *BoardError) Unwrap() error {
	return e.Err
}
