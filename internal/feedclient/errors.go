package feedclient

import (
	"errors"
	"fmt"
)

// ErrSuperseded is returned by a load whose response arrived after a refresh
// reset the feed. The response is discarded.
var ErrSuperseded = errors.New("feed request superseded by refresh")

// ClientNetworkError reports a failed request to the feed endpoint: a
// transport failure, a non-2xx status or an unusable body.
type ClientNetworkError struct {
	Page       int
	StatusCode int
	Err        error
}

func (e *ClientNetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed page %d: status %d: %v", e.Page, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("feed page %d: %v", e.Page, e.Err)
}

func (e *ClientNetworkError) Unwrap() error {
	return e.Err
}

func asNetworkError(page int, err error) *ClientNetworkError {
	var ne *ClientNetworkError
	if errors.As(err, &ne) {
		return ne
	}
	return &ClientNetworkError{Page: page, Err: err}
}
