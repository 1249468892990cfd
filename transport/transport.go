// Package transport implements the byte channels a secure channel rides
// on: an HTTP connector today (grounded on the teacher's connector/http.go),
// with a documented USB extension point for a bulk-endpoint reader.
package transport

import (
	"context"
	"fmt"
)

// ConnectorStatus is the parsed response of a connector's status endpoint.
type ConnectorStatus struct {
	Status  string
	Serial  string
	Version string
	Pid     string
	Address string
	Port    string
}

// TransportError wraps a non-success response from the underlying
// transport (an HTTP status code, a USB stall, etc.) so callers can tell
// a malformed/rejected request apart from a network-level failure.
type TransportError struct {
	Detail string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s", e.Detail)
}

// Transport is satisfied by every concrete connector in this package; it
// is the same contract securechannel.Transport expects, kept as a
// separate type here so this package does not import securechannel.
type Transport interface {
	Send(ctx context.Context, req []byte) ([]byte, error)
}
