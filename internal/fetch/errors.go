package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FetchError wraps a per-entry transport failure with the catalog entry it
// belongs to, so the run summary can attribute it.
type FetchError struct {
	EntryID string
	Op      string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.EntryID, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type ErrorType string

const (
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
)

// statusError is returned for non-2xx responses so the retry loop can tell
// a 503 apart from a 404.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.code, e.url)
}

// Classify decides whether a fetch failure is worth retrying. Network-level
// errors, timeouts, 429 and 5xx responses are transient; everything else is
// permanent. Context cancellation is permanent so interruption stops the
// retry loop immediately.
func Classify(err error) ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorPermanent
	}
	var se *statusError
	if errors.As(err, &se) {
		if se.code == 429 || se.code >= 500 {
			return ErrorTransient
		}
		return ErrorPermanent
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ErrorTransient
	}
	// url.Error and friends wrap the transport cause; treat any remaining
	// non-HTTP failure as transient since it is network shaped.
	return ErrorTransient
}
