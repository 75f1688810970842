package dashfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Sentinel errors for caller bugs. These are the only errors Fetch returns;
// transport and server failures always resolve to a fallback payload.
var (
	// ErrInvalidURL is returned when the URL is empty or unparseable.
	ErrInvalidURL = errors.New("dashfetch: invalid url")

	// ErrInvalidOptions is returned when the options record is malformed.
	ErrInvalidOptions = errors.New("dashfetch: invalid request options")
)

// RequestError is the internal classification of a failed attempt. It never
// crosses the Fetch boundary; it drives retry and breaker decisions and is
// surfaced only through debug logging and metrics.
type RequestError struct {
	Kind    FailureKind
	Status  int
	URL     string
	Attempt int
	Cause   error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("dashfetch: %s failure for %s", e.Kind, e.URL)
	if e.Kind == FailureHTTP || e.Status > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d)", msg, e.Attempt)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares failure kinds for errors.Is.
func (e *RequestError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*RequestError); ok {
		return e.Kind == targetErr.Kind
	}
	return false
}

// Retryable reports whether another attempt may succeed. Auth failures and
// non-retryable HTTP statuses are terminal; malformed bodies are retried
// because the cause is ambiguous at this level.
func (e *RequestError) Retryable() bool {
	switch e.Kind {
	case FailureTimeout, FailureNetwork, FailureMalformed:
		return true
	case FailureHTTP:
		return retryableStatus(e.Status)
	default:
		return false
	}
}

func retryableStatus(status int) bool {
	switch status {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// classifyTransportError maps a transport-level error to a failure kind.
func classifyTransportError(url string, attempt int, err error) *RequestError {
	kind := FailureNetwork
	switch {
	case errors.Is(err, context.Canceled):
		kind = failureCanceled
	case errors.Is(err, context.DeadlineExceeded):
		kind = FailureTimeout
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = FailureTimeout
		}
	}
	return &RequestError{Kind: kind, URL: url, Attempt: attempt, Cause: err}
}

// looksLikeHTML sniffs login-page bodies. Unauthenticated API calls in the
// upstream system are redirected to an HTML login page with a 2xx status,
// so the content guard must run even on success statuses.
func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	lower := bytes.ToLower(trimmed)
	return bytes.HasPrefix(lower, []byte("<!doctype")) || bytes.HasPrefix(lower, []byte("<html"))
}

// classifyResponse maps a well-formed HTTP response to a failure kind, or
// nil when the attempt should be treated as a candidate success.
func classifyResponse(url string, attempt, status int, contentType string, body []byte) *RequestError {
	if status == 401 || status == 403 {
		return &RequestError{Kind: FailureAuthRequired, Status: status, URL: url, Attempt: attempt}
	}
	if looksLikeHTML(contentType, body) {
		return &RequestError{Kind: FailureAuthRequired, Status: status, URL: url, Attempt: attempt}
	}
	if status < 200 || status >= 300 {
		return &RequestError{Kind: FailureHTTP, Status: status, URL: url, Attempt: attempt}
	}
	return nil
}
