package securechannel

import "github.com/yubihsm/scp03/primitives"

// Cryptogram is an 8-byte authentication tag exchanged once during the
// handshake to prove possession of the derived session MAC key. Unlike a
// Challenge, a Cryptogram is sensitive: it is compared in constant time
// and zeroized once it is no longer needed.
type Cryptogram struct {
	bytes [primitives.CryptogramSize]byte
	zero  bool
}

// CryptogramFromBytes builds a Cryptogram from an 8-byte slice.
func CryptogramFromBytes(b []byte) (Cryptogram, error) {
	var c Cryptogram
	if len(b) != primitives.CryptogramSize {
		return c, errInvalidCryptogramLength
	}
	copy(c.bytes[:], b)
	return c, nil
}

// Bytes returns the cryptogram's 8-byte wire representation. The returned
// slice is a copy; mutating it does not affect the Cryptogram.
func (c Cryptogram) Bytes() []byte {
	out := make([]byte, primitives.CryptogramSize)
	copy(out, c.bytes[:])
	return out
}

// Equal reports whether two cryptograms are the same, using a
// constant-time comparison so that timing does not leak the position of
// the first differing byte.
func (c Cryptogram) Equal(other Cryptogram) bool {
	return primitives.ConstantTimeEqual(c.bytes[:], other.bytes[:])
}

// Zero overwrites the cryptogram's bytes with zeros. Safe to call more
// than once.
func (c *Cryptogram) Zero() {
	if c.zero {
		return
	}
	primitives.Zero(c.bytes[:])
	c.zero = true
}
