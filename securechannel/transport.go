package securechannel

import "context"

// Transport is the opaque byte channel a SecureChannel rides on. It is
// implemented by package transport (HTTP today, USB as a documented
// extension point) and by test fakes; SecureChannel never interprets
// anything about the transport beyond the bytes it returns.
type Transport interface {
	// Send delivers req and returns the HSM's raw response. A non-nil
	// error means the caller cannot know whether the HSM processed the
	// command, so SecureChannel treats every Send error as fatal to the
	// current session.
	Send(ctx context.Context, req []byte) ([]byte, error)
}
