// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error taxonomy shared by every access layer. Concrete error types wrap
// one of these so callers can classify failures with errors.Is.
var (
	// ErrNetworkFailure covers timeouts, DNS and TLS failures.
	ErrNetworkFailure = errors.New("network failure")

	// ErrProtocol covers OAI-PMH <error> elements and non-2xx HTTP status.
	ErrProtocol = errors.New("protocol error")

	// ErrParse covers malformed XML/JSON or an unexpected document shape.
	ErrParse = errors.New("parse error")

	// ErrCapabilityUnavailable means no working access method was found.
	ErrCapabilityUnavailable = errors.New("capability unavailable")
)
