package snapshot

import (
	"fmt"
	"net"
	"net/http"

	"github.com/teranos/harvest/errors"
)

// RateLimitError is returned when the API responds with HTTP 429.
// Submission retries key off this type.
type RateLimitError struct {
	Body string
}

func (e *RateLimitError) Error() string {
	return "API rate limit exceeded (HTTP 429)"
}

// Is lets errors.Is(err, errors.ErrRateLimited) match
func (e *RateLimitError) Is(target error) bool {
	return target == errors.ErrRateLimited
}

// HTTPStatusError is returned for any non-2xx response other than 429
type HTTPStatusError struct {
	Code int
	Body string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.Code, e.Body)
}

// classifyStatus maps a non-2xx response onto the error taxonomy
func classifyStatus(code int, body []byte) error {
	switch code {
	case http.StatusTooManyRequests:
		return &RateLimitError{Body: string(body)}
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrapf(errors.ErrUnauthorized, "HTTP %d: %s", code, truncateBody(body))
	default:
		return &HTTPStatusError{Code: code, Body: truncateBody(body)}
	}
}

// classifyTransport maps a failed round trip onto the timeout and
// unreachable sentinels
func classifyTransport(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(errors.ErrTimeout, err.Error())
	}
	return errors.Wrap(errors.ErrUnreachable, err.Error())
}

const maxErrorBodyLen = 512

func truncateBody(body []byte) string {
	if len(body) > maxErrorBodyLen {
		return string(body[:maxErrorBodyLen]) + "..."
	}
	return string(body)
}
