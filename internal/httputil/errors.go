// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"fmt"
	"net/http"

	"github.com/pdiddy/repo-access/pkg/types"
)

// StatusError reports a non-2xx HTTP response. It classifies as
// types.ErrProtocol.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

func (e *StatusError) Unwrap() error { return types.ErrProtocol }

// retryable reports whether the status signals throttling or a
// temporary outage.
func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

// NetworkError reports a request that failed without an HTTP response
// after all attempts. It classifies as types.ErrNetworkFailure and also
// unwraps to the last cause.
type NetworkError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed after %d attempts for %s: %v", e.Attempts, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{types.ErrNetworkFailure, e.Err}
}
