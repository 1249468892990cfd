package securechannel

import (
	"encoding/binary"

	"github.com/yubihsm/scp03/message"
	"github.com/yubihsm/scp03/primitives"
)

// macInput builds the bytes CMAC'd to authenticate a command or response:
// the running chaining value, the message's tag/length header, and its
// body excluding the trailing MAC itself.
func macInput(chainValue [16]byte, tag message.Tag, sessionID *uint8, payload []byte) []byte {
	body := len(payload) + primitives.CryptogramSize // + MAC length, per the wire length field
	if sessionID != nil {
		body++
	}

	buf := make([]byte, 0, 16+3+body-primitives.CryptogramSize)
	buf = append(buf, chainValue[:]...)
	buf = append(buf, byte(tag))
	buf = binary.BigEndian.AppendUint16(buf, uint16(body))
	if sessionID != nil {
		buf = append(buf, *sessionID)
	}
	buf = append(buf, payload...)
	return buf
}

// calculateMAC computes the full 16-byte CMAC for a command or response
// under key, using chainValue as the running MAC-chaining state.
func calculateMAC(key []byte, chainValue [16]byte, tag message.Tag, sessionID *uint8, payload []byte) ([16]byte, error) {
	full, err := primitives.CMAC(key, macInput(chainValue, tag, sessionID, payload))
	if err != nil {
		return [16]byte{}, err
	}
	var out [16]byte
	copy(out[:], full)
	return out, nil
}
