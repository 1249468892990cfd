package securechannel

import (
	"encoding/binary"

	"github.com/yubihsm/scp03/primitives"
)

// DerivationConstant selects which value the SCP03 KDF produces: a session
// key or a handshake cryptogram.
type DerivationConstant byte

const (
	// DerivationCardCryptogram derives the card's handshake cryptogram.
	DerivationCardCryptogram DerivationConstant = 0b000
	// DerivationHostCryptogram derives the host's handshake cryptogram.
	DerivationHostCryptogram DerivationConstant = 0b001
	// DerivationEncKey derives S-ENC from the static enc key.
	DerivationEncKey DerivationConstant = 0b100
	// DerivationMacKey derives S-MAC from the static mac key.
	DerivationMacKey DerivationConstant = 0b110
	// DerivationRMacKey derives S-RMAC from the static mac key.
	DerivationRMacKey DerivationConstant = 0b111
)

// deriveKDF implements the SCP03 counter-mode KDF (CMAC-AES128 as PRF):
// build a 32-byte derivation-data block from the constant, output length
// and context, then return the first outputLen bytes of
// CMAC-AES128(parentKey, derivationData).
//
//	bytes  0..11 : 0x00
//	byte   11    : derivationConstant
//	byte   12    : 0x00 (separation indicator)
//	bytes  13..14: outputLen*8, big-endian
//	byte   15    : 0x01 (KDF counter, always 1: we never derive more than
//	               one block of output)
//	bytes  16..31: context
func deriveKDF(parentKey []byte, constant DerivationConstant, context Context, outputLen int) ([]byte, error) {
	if len(parentKey) != primitives.KeySize {
		return nil, errInvalidKeyLength
	}
	if outputLen <= 0 || outputLen > primitives.KeySize {
		return nil, errInvalidDerivationLength
	}

	data := make([]byte, 32)
	data[11] = byte(constant)
	data[12] = 0x00
	binary.BigEndian.PutUint16(data[13:15], uint16(outputLen*8))
	data[15] = 0x01
	copy(data[16:], context.Bytes())

	full, err := primitives.CMAC(parentKey, data)
	if err != nil {
		return nil, err
	}
	out := make([]byte, outputLen)
	copy(out, full)
	primitives.Zero(full)
	return out, nil
}

// deriveCryptogram derives a cryptogram from S-MAC and the handshake
// context; cryptogram derivations always use S-MAC as the parent key and
// produce a full 8-byte cryptogram.
func deriveCryptogram(macKey []byte, constant DerivationConstant, context Context) (Cryptogram, error) {
	raw, err := deriveKDF(macKey, constant, context, primitives.CryptogramSize)
	if err != nil {
		return Cryptogram{}, err
	}
	defer primitives.Zero(raw)
	return CryptogramFromBytes(raw)
}
