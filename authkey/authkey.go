// Package authkey implements AuthenticationKey: the long-term, static
// AES-128 key pair (enc, mac) shared between host and HSM, from which
// every session's keys are ultimately derived. An AuthenticationKey can be
// built from raw bytes exported from a key-management system, or derived
// from a human-memorable password via PBKDF2, exactly as the HSM itself
// derives authentication-key objects created with a password.
package authkey

import (
	"errors"

	"github.com/yubihsm/scp03/primitives"
)

// AuthenticationKey holds the static enc_key/mac_key pair used to bootstrap
// a secure channel. The underlying bytes are zeroized by Zero, which every
// owner of an AuthenticationKey must call once it is no longer needed.
type AuthenticationKey struct {
	// raw is encKey (16B) || macKey (16B). Kept as a single buffer so Zero
	// clears both halves with one pass.
	raw [2 * primitives.KeySize]byte
}

// FromBytes builds an AuthenticationKey from 32 raw bytes: enc key followed
// by mac key.
func FromBytes(raw []byte) (*AuthenticationKey, error) {
	if len(raw) != 2*primitives.KeySize {
		return nil, errors.New("authkey: raw key material must be exactly 32 bytes")
	}
	k := &AuthenticationKey{}
	copy(k.raw[:], raw)
	return k, nil
}

// FromPassword derives an AuthenticationKey from a password using
// PBKDF2-HMAC-SHA256 with the fixed salt and iteration count mandated for
// HSM authentication keys.
func FromPassword(password string) *AuthenticationKey {
	derived := primitives.PBKDF2HMACSHA256(
		[]byte(password),
		[]byte(primitives.PBKDF2Salt),
		primitives.PBKDF2Iterations,
		primitives.PBKDF2OutputLen,
	)
	defer primitives.Zero(derived)

	k := &AuthenticationKey{}
	copy(k.raw[:], derived)
	return k
}

// EncKey returns the encryption-key half of the pair.
func (k *AuthenticationKey) EncKey() []byte {
	return k.raw[:primitives.KeySize]
}

// MacKey returns the MAC-key half of the pair.
func (k *AuthenticationKey) MacKey() []byte {
	return k.raw[primitives.KeySize:]
}

// Zero overwrites both key halves with zero bytes. Safe to call more than
// once.
func (k *AuthenticationKey) Zero() {
	for i := range k.raw {
		k.raw[i] = 0
	}
}
