package securechannel

import "github.com/yubihsm/scp03/primitives"

// Context is the 16-byte concatenation of the host and card challenges. It
// binds every KDF invocation of a session to that session's handshake.
type Context [2 * primitives.ChallengeSize]byte

// NewContext builds a Context from the host and card challenges exchanged
// during the handshake.
func NewContext(host, card Challenge) Context {
	var ctx Context
	copy(ctx[:primitives.ChallengeSize], host[:])
	copy(ctx[primitives.ChallengeSize:], card[:])
	return ctx
}

// Bytes returns the context's 16-byte wire representation.
func (c Context) Bytes() []byte {
	out := make([]byte, len(c))
	copy(out, c[:])
	return out
}
