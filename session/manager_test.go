package session

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yubihsm/scp03/authkey"
	"github.com/yubihsm/scp03/message"
	"github.com/yubihsm/scp03/primitives"
	"github.com/yubihsm/scp03/securechannel"
)

const echoTag = message.Tag(0x01)

// fakeHSM is a minimal standalone card-side peer built directly against
// the exported primitives/message/authkey APIs (it cannot reach into
// package securechannel's unexported KDF/MAC helpers), enough to drive a
// Manager through a handshake and a round of encrypted commands.
type fakeHSM struct {
	authKey       *authkey.AuthenticationKey
	sessionID     uint8
	encKey        [16]byte
	macKey        [16]byte
	rmacKey       [16]byte
	hostChallenge [8]byte
	cardChallenge [8]byte
	chain         [16]byte
	counter       uint32
	authenticated bool

	// failNextWithSessionExpired makes the next SessionMessage response
	// an outer-level device error, simulating the HSM declaring the
	// session expired.
	failNextWithSessionExpired bool
}

func newFakeHSM(key *authkey.AuthenticationKey) *fakeHSM {
	return &fakeHSM{authKey: key}
}

func kdf(parentKey []byte, constant byte, context []byte, outLen int) []byte {
	data := make([]byte, 32)
	data[11] = constant
	binary.BigEndian.PutUint16(data[13:15], uint16(outLen*8))
	data[15] = 0x01
	copy(data[16:], context)
	full, err := primitives.CMAC(parentKey, data)
	if err != nil {
		panic(err)
	}
	return full[:outLen]
}

func (h *fakeHSM) Send(_ context.Context, req []byte) ([]byte, error) {
	tag := message.Tag(req[0])
	length := binary.BigEndian.Uint16(req[1:3])
	body := req[3 : 3+length]

	// A fresh CreateSession request always has this exact 10-byte body
	// (key slot + host challenge, no session-id prefix), distinguishing
	// it from a SessionMessage even though both share tag 0x03 — this
	// lets the fake restart cleanly on every reconnect.
	if tag == message.CreateSessionTag && len(body) == 10 {
		h.authenticated = false
	}

	if !h.authenticated {
		if tag == message.CreateSessionTag {
			copy(h.hostChallenge[:], body[2:])
			cc, _ := securechannel.RandomChallenge()
			copy(h.cardChallenge[:], cc.Bytes())
			h.sessionID = 1

			ctx := append(append([]byte{}, h.hostChallenge[:]...), h.cardChallenge[:]...)
			copy(h.encKey[:], kdf(h.authKey.EncKey(), 0b100, ctx, 16))
			copy(h.macKey[:], kdf(h.authKey.MacKey(), 0b110, ctx, 16))
			copy(h.rmacKey[:], kdf(h.authKey.MacKey(), 0b111, ctx, 16))
			cardCryptogram := kdf(h.macKey[:], 0b000, ctx, 8)

			payload := append([]byte{h.sessionID}, h.cardChallenge[:]...)
			payload = append(payload, cardCryptogram...)
			return frame(message.ResponseTag(message.CreateSessionTag), nil, payload), nil
		}

		// AuthenticateSession
		sid := body[0]
		hostCryptogram := body[1:9]
		ctx := append(append([]byte{}, h.hostChallenge[:]...), h.cardChallenge[:]...)
		expected := kdf(h.macKey[:], 0b001, ctx, 8)
		if !primitives.ConstantTimeEqual(expected, hostCryptogram) {
			return frame(message.ErrorTag, nil, []byte{byte(message.DeviceErrorAuthenticationFailed)}), nil
		}
		var zero [16]byte
		mac := calcMAC(h.macKey[:], zero, tag, &sid, hostCryptogram)
		h.chain = mac
		h.counter = 1
		h.authenticated = true
		return frame(message.ResponseTag(message.AuthenticateSessionTag), &sid, nil), nil
	}

	if h.failNextWithSessionExpired {
		h.failNextWithSessionExpired = false
		return frame(message.ErrorTag, nil, []byte{byte(message.DeviceErrorSessionExpired)}), nil
	}

	sid := body[0]
	rest := body[1:]
	ciphertext := rest[:len(rest)-8]
	mac := calcMAC(h.macKey[:], h.chain, tag, &sid, ciphertext)
	h.chain = mac

	counterBlock := make([]byte, 16)
	binary.BigEndian.PutUint32(counterBlock[12:], h.counter)
	iv, _ := primitives.ECBEncryptBlock(h.encKey[:], counterBlock)
	plaintext, _ := primitives.CBCDecrypt(h.encKey[:], iv, ciphertext)
	unpadded, _ := primitives.Unpad(plaintext)
	h.counter++

	innerPayload := unpadded[3:]
	innerFrame := frame(message.ResponseTag(echoTag), nil, innerPayload)[3:]
	respCiphertext, _ := primitives.CBCEncrypt(h.encKey[:], iv, primitives.Pad(innerFrame))
	respMAC := calcMAC(h.rmacKey[:], h.chain, message.ResponseTag(message.SessionMessageTag), &sid, respCiphertext)

	return frame(message.ResponseTag(message.SessionMessageTag), &sid, append(respCiphertext, respMAC[:8]...)), nil
}

func calcMAC(key []byte, chain [16]byte, tag message.Tag, sessionID *uint8, payload []byte) [16]byte {
	body := len(payload) + 8
	if sessionID != nil {
		body++
	}
	buf := make([]byte, 0, 16+3+body-8)
	buf = append(buf, chain[:]...)
	buf = append(buf, byte(tag))
	buf = binary.BigEndian.AppendUint16(buf, uint16(body))
	if sessionID != nil {
		buf = append(buf, *sessionID)
	}
	buf = append(buf, payload...)
	full, err := primitives.CMAC(key, buf)
	if err != nil {
		panic(err)
	}
	var out [16]byte
	copy(out[:], full)
	return out
}

func frame(tag message.Tag, sessionID *uint8, payload []byte) []byte {
	body := len(payload)
	if sessionID != nil {
		body++
	}
	out := make([]byte, 0, 3+body)
	out = append(out, byte(tag))
	out = binary.BigEndian.AppendUint16(out, uint16(body))
	if sessionID != nil {
		out = append(out, *sessionID)
	}
	out = append(out, payload...)
	return out
}

func TestManagerOpenAndSendCommand(t *testing.T) {
	key := authkey.FromPassword("password")
	hsm := newFakeHSM(key)

	mgr, err := Open(context.Background(), hsm, 1, key)
	require.NoError(t, err)
	require.Equal(t, "authenticated", mgr.State())

	reply, err := mgr.SendCommand(context.Background(), echoTag, []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), reply)
}

func TestManagerNoReconnectAfterInactivity(t *testing.T) {
	key := authkey.FromPassword("password")
	hsm := newFakeHSM(key)

	mgr, err := Open(context.Background(), hsm, 1, key)
	require.NoError(t, err)

	mgr.lastActivity = time.Now().Add(-InactivityTimeout - time.Second)

	_, err = mgr.SendCommand(context.Background(), echoTag, []byte("ping"))
	require.Error(t, err)
}

func TestManagerReconnectsOnInactivity(t *testing.T) {
	key := authkey.FromPassword("password")
	hsm := newFakeHSM(key)

	mgr, err := Open(context.Background(), hsm, 1, key, WithReconnectPolicy(ReconnectOnTimeout))
	require.NoError(t, err)

	mgr.lastActivity = time.Now().Add(-InactivityTimeout - time.Second)

	reply, err := mgr.SendCommand(context.Background(), echoTag, []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), reply)
}

func TestManagerReconnectsOnDeviceSessionError(t *testing.T) {
	key := authkey.FromPassword("password")
	hsm := newFakeHSM(key)

	mgr, err := Open(context.Background(), hsm, 1, key, WithReconnectPolicy(ReconnectOnTimeoutOrDeviceSessionError))
	require.NoError(t, err)

	hsm.failNextWithSessionExpired = true

	reply, err := mgr.SendCommand(context.Background(), echoTag, []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), reply)
}

func TestManagerCloseThenSendFails(t *testing.T) {
	key := authkey.FromPassword("password")
	hsm := newFakeHSM(key)

	mgr, err := Open(context.Background(), hsm, 1, key)
	require.NoError(t, err)
	require.NoError(t, mgr.Close(context.Background()))

	_, err = mgr.SendCommand(context.Background(), echoTag, []byte("ping"))
	require.Error(t, err)
}
