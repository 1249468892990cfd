package transport

import (
	"context"
	"errors"
)

// USB is the extension point for a bulk-endpoint HSM transport (a
// PC/SC-style reader, following the pattern in the pack's smart-card
// tooling). There is no USB hardware to exercise from this module, so
// Send is unimplemented; a real build would open the device's bulk
// endpoints here and frame requests/responses exactly as HTTP.Send does
// over its socket.
type USB struct {
	VendorID  uint16
	ProductID uint16
}

// Send always fails: USB is a documented extension point, not a working
// transport.
func (u *USB) Send(ctx context.Context, req []byte) ([]byte, error) {
	return nil, errors.New("transport: USB is not implemented in this build")
}
