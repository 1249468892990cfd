package securechannel

import "github.com/yubihsm/scp03/primitives"

// sessionKeys are the three per-session symmetric keys derived once at
// handshake time. They never leave the owning SecureChannel and are
// zeroized in Close and in any handshake failure path that created them.
type sessionKeys struct {
	encKey  [primitives.KeySize]byte
	macKey  [primitives.KeySize]byte
	rmacKey [primitives.KeySize]byte
	zeroed  bool
}

func deriveSessionKeys(authEncKey, authMacKey []byte, context Context) (*sessionKeys, error) {
	enc, err := deriveKDF(authEncKey, DerivationEncKey, context, primitives.KeySize)
	if err != nil {
		return nil, err
	}
	mac, err := deriveKDF(authMacKey, DerivationMacKey, context, primitives.KeySize)
	if err != nil {
		return nil, err
	}
	rmac, err := deriveKDF(authMacKey, DerivationRMacKey, context, primitives.KeySize)
	if err != nil {
		return nil, err
	}

	keys := &sessionKeys{}
	copy(keys.encKey[:], enc)
	copy(keys.macKey[:], mac)
	copy(keys.rmacKey[:], rmac)
	primitives.Zero(enc)
	primitives.Zero(mac)
	primitives.Zero(rmac)
	return keys, nil
}

func (k *sessionKeys) zero() {
	if k == nil || k.zeroed {
		return
	}
	primitives.Zero(k.encKey[:])
	primitives.Zero(k.macKey[:])
	primitives.Zero(k.rmacKey[:])
	k.zeroed = true
}
