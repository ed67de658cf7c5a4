package upstream

import (
	"errors"
	"fmt"
)

// ErrEmptyContent is returned without contacting the upstream when a caller
// attempts to send empty message content.
var ErrEmptyContent = errors.New("upstream: empty content")

// Error is the single typed failure surfaced for any non-2xx upstream
// response ("a single typed UpstreamError(status, body)").
type Error struct {
	Op     string
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream: %s failed: status %d: %s", e.Op, e.Status, e.Body)
}

// ErrMissingReply indicates a 2xx response body contained neither a
// "content" nor a "text" field.
var ErrMissingReply = errors.New("upstream: response missing content/text field")
