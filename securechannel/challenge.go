package securechannel

import (
	"crypto/rand"

	"github.com/yubihsm/scp03/primitives"
)

// Challenge is an 8-byte value exchanged during the handshake: one
// generated by the host, one returned by the card. Challenges are not
// secret, only the cryptograms derived from them are, so equality is plain
// byte comparison rather than constant time.
type Challenge [primitives.ChallengeSize]byte

// RandomChallenge draws a new challenge from a cryptographically secure
// RNG.
func RandomChallenge() (Challenge, error) {
	var c Challenge
	if _, err := rand.Read(c[:]); err != nil {
		return Challenge{}, err
	}
	return c, nil
}

// ChallengeFromBytes builds a Challenge from an 8-byte slice, such as one
// received from the card.
func ChallengeFromBytes(b []byte) (Challenge, error) {
	var c Challenge
	if len(b) != primitives.ChallengeSize {
		return c, errInvalidChallengeLength
	}
	copy(c[:], b)
	return c, nil
}

// Bytes returns the challenge's 8-byte wire representation.
func (c Challenge) Bytes() []byte {
	out := make([]byte, primitives.ChallengeSize)
	copy(out, c[:])
	return out
}

// Equal reports whether two challenges carry the same bytes.
func (c Challenge) Equal(other Challenge) bool {
	return c == other
}
