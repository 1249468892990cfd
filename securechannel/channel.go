// Package securechannel implements the SCP03 secure channel: the
// handshake that establishes a mutually authenticated session with an
// HSM, the KDF that derives its session keys, and the MAC-chained,
// CBC-encrypted command/response transport that rides on top of it.
package securechannel

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yubihsm/scp03/authkey"
	"github.com/yubihsm/scp03/message"
	"github.com/yubihsm/scp03/primitives"
)

const (
	// MaxCommandCounter is the largest value the 31-bit command counter
	// may reach before a handshake is required again.
	MaxCommandCounter = 1<<31 - 1

	// DefaultCommandLimit is the recommended soft per-session limit on
	// commands, well below the hard wire limit, after which callers
	// should recreate the session.
	DefaultCommandLimit = 1 << 20
)

// SecureChannel is a single SCP03 session with an HSM: the state machine
// described in spec §4.5.5, the MAC chaining value, and the derived
// session keys. A SecureChannel is safe for concurrent use: every
// operation serializes through an internal mutex, so commands issued
// against one channel from multiple goroutines still complete in program
// order with no interleaving at the crypto layer.
type SecureChannel struct {
	mu sync.Mutex

	transport   Transport
	authKeySlot uint16
	authKey     *authkey.AuthenticationKey
	logger      *slog.Logger

	st            state
	sessionID     uint8
	counter       uint32
	commandLimit  uint32
	hostChallenge Challenge
	cardChallenge Challenge
	keys          *sessionKeys
	macChainValue [16]byte
}

// Option configures a SecureChannel at construction time.
type Option func(*SecureChannel)

// WithLogger sets the logger used for handshake/MAC-chain/reconnect
// diagnostics. Never logs key material, MACs, or decrypted payloads.
func WithLogger(logger *slog.Logger) Option {
	return func(c *SecureChannel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCommandLimit overrides the soft per-session command limit (default
// DefaultCommandLimit).
func WithCommandLimit(limit uint32) Option {
	return func(c *SecureChannel) { c.commandLimit = limit }
}

// New creates a SecureChannel bound to transport and ready to Authenticate
// against the authentication key at authKeySlot.
func New(transport Transport, authKeySlot uint16, authKey *authkey.AuthenticationKey, opts ...Option) (*SecureChannel, error) {
	hostChallenge, err := RandomChallenge()
	if err != nil {
		return nil, wrapError(KindCreateFailed, "failed to generate host challenge", err)
	}

	c := &SecureChannel{
		transport:     transport,
		authKeySlot:   authKeySlot,
		authKey:       authKey,
		logger:        slog.Default(),
		st:            stateInitial,
		commandLimit:  DefaultCommandLimit,
		hostChallenge: hostChallenge,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State reports the channel's current lifecycle state, for callers (e.g.
// the session manager) that want to decide about reconnecting without
// triggering a failed operation first.
func (c *SecureChannel) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.String()
}

// SessionID returns the HSM-assigned session identifier, valid once
// Authenticate has progressed past the CreateSession exchange.
func (c *SecureChannel) SessionID() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Counter returns the current command counter value.
func (c *SecureChannel) Counter() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

// Authenticate performs the SCP03 handshake: CreateSession, cryptogram
// verification, and AuthenticateSession. On any failure the channel
// transitions to Closed and any session keys created so far are zeroized.
func (c *SecureChannel) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st != stateInitial {
		return newError(KindCreateFailed, "channel has already begun a handshake")
	}

	c.logger.Debug("scp03: sending CreateSession", "authKeySlot", c.authKeySlot)

	createPayload := make([]byte, 0, 10)
	createPayload = binary.BigEndian.AppendUint16(createPayload, c.authKeySlot)
	createPayload = append(createPayload, c.hostChallenge.Bytes()...)

	createCmd := message.NewCommand(message.CreateSessionTag, createPayload)
	createRaw, err := createCmd.Encode()
	if err != nil {
		return c.closeWith(wrapError(KindCreateFailed, "failed to encode CreateSession", err))
	}

	rawResp, err := c.transport.Send(ctx, createRaw)
	if err != nil {
		return c.closeWith(wrapError(KindProtocolError, "transport error during CreateSession", err))
	}

	resp, err := message.ParseResponse(rawResp, false, 0)
	if err != nil {
		return c.closeWith(wrapError(KindProtocolError, "malformed CreateSession response", err))
	}
	if resp.Tag == message.ErrorTag {
		kind, derr := message.ParseDeviceError(resp.Payload)
		if derr != nil {
			return c.closeWith(wrapError(KindProtocolError, "malformed device error", derr))
		}
		return c.closeWith(newDeviceError(kind))
	}
	if resp.Tag != message.ResponseTag(message.CreateSessionTag) {
		return c.closeWith(newError(KindResponseError, "unexpected tag in CreateSession response"))
	}
	if len(resp.Payload) != 1+primitives.ChallengeSize+primitives.CryptogramSize {
		return c.closeWith(newError(KindProtocolError, "invalid CreateSession response length"))
	}

	c.sessionID = resp.Payload[0]
	cardChallenge, err := ChallengeFromBytes(resp.Payload[1 : 1+primitives.ChallengeSize])
	if err != nil {
		return c.closeWith(wrapError(KindProtocolError, "invalid card challenge", err))
	}
	cardCryptogram, err := CryptogramFromBytes(resp.Payload[1+primitives.ChallengeSize:])
	if err != nil {
		return c.closeWith(wrapError(KindProtocolError, "invalid card cryptogram", err))
	}
	defer cardCryptogram.Zero()
	c.cardChallenge = cardChallenge
	c.st = stateChallengeSent

	sessionContext := NewContext(c.hostChallenge, c.cardChallenge)
	keys, err := deriveSessionKeys(c.authKey.EncKey(), c.authKey.MacKey(), sessionContext)
	if err != nil {
		return c.closeWith(wrapError(KindCreateFailed, "failed to derive session keys", err))
	}
	c.keys = keys

	expectedCardCryptogram, err := deriveCryptogram(c.keys.macKey[:], DerivationCardCryptogram, sessionContext)
	if err != nil {
		return c.closeWith(wrapError(KindCreateFailed, "failed to derive card cryptogram", err))
	}
	defer expectedCardCryptogram.Zero()
	if !expectedCardCryptogram.Equal(cardCryptogram) {
		cardCryptogram.Zero()
		return c.closeWith(newError(KindAuthenticationError, "device sent an unexpected cryptogram"))
	}
	cardCryptogram.Zero()
	expectedCardCryptogram.Zero()

	hostCryptogram, err := deriveCryptogram(c.keys.macKey[:], DerivationHostCryptogram, sessionContext)
	if err != nil {
		return c.closeWith(wrapError(KindCreateFailed, "failed to derive host cryptogram", err))
	}
	defer hostCryptogram.Zero()

	c.logger.Debug("scp03: card cryptogram verified, sending AuthenticateSession", "sessionID", c.sessionID)

	authPayload := hostCryptogram.Bytes()
	authRaw, mac, err := c.macAndEncode(message.AuthenticateSessionTag, authPayload, nil)
	if err != nil {
		return c.closeWith(wrapError(KindCreateFailed, "failed to MAC AuthenticateSession", err))
	}
	c.macChainValue = mac

	rawAuthResp, err := c.transport.Send(ctx, authRaw)
	if err != nil {
		return c.closeWith(wrapError(KindProtocolError, "transport error during AuthenticateSession", err))
	}

	authResp, err := message.ParseResponse(rawAuthResp, true, 0)
	if err != nil {
		return c.closeWith(wrapError(KindProtocolError, "malformed AuthenticateSession response", err))
	}
	if authResp.Tag == message.ErrorTag {
		kind, derr := message.ParseDeviceError(authResp.Payload)
		if derr != nil {
			return c.closeWith(wrapError(KindProtocolError, "malformed device error", derr))
		}
		return c.closeWith(newDeviceError(kind))
	}
	if authResp.Tag != message.ResponseTag(message.AuthenticateSessionTag) {
		return c.closeWith(newError(KindResponseError, "unexpected tag in AuthenticateSession response"))
	}

	c.counter = 1
	c.st = stateAuthenticated
	c.logger.Debug("scp03: session authenticated", "sessionID", c.sessionID)
	return nil
}

// macAndEncode MACs a command under S-MAC (chaining from c.macChainValue)
// and returns its wire encoding together with the new 16-byte chaining
// value, without mutating channel state — callers decide when to commit
// the new chaining value.
func (c *SecureChannel) macAndEncode(tag message.Tag, payload []byte, sessionID *uint8) ([]byte, [16]byte, error) {
	sid := sessionID
	if sid == nil {
		sid = &c.sessionID
	}

	mac, err := calculateMAC(c.keys.macKey[:], c.macChainValue, tag, sid, payload)
	if err != nil {
		return nil, [16]byte{}, err
	}

	cmd := message.NewCommand(tag, payload)
	cmd.SessionID = sid
	cmd.MAC = mac[:primitives.CryptogramSize]
	raw, err := cmd.Encode()
	if err != nil {
		return nil, [16]byte{}, err
	}
	return raw, mac, nil
}

// SendEncryptedCommand sends tag/payload as an encrypted SessionMessage
// and returns the decrypted response payload. It implements spec
// §4.5.3/§4.5.4: counter-derived IV, CBC encryption, MAC chaining, and the
// failure semantics of §4.5.6.
func (c *SecureChannel) SendEncryptedCommand(ctx context.Context, tag message.Tag, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st != stateAuthenticated {
		return nil, newError(KindClosedSession, fmt.Sprintf("channel is %s, not authenticated", c.st))
	}
	if c.counter > MaxCommandCounter || c.counter >= c.commandLimit {
		return nil, c.closeWith(newError(KindCommandLimitExceeded, "command counter limit reached; recreate the session"))
	}

	inner := make([]byte, 0, 3+len(payload))
	inner = append(inner, byte(tag))
	inner = binary.BigEndian.AppendUint16(inner, uint16(len(payload)))
	inner = append(inner, payload...)

	counterBlock := make([]byte, 16)
	binary.BigEndian.PutUint32(counterBlock[12:], c.counter)

	iv, err := primitives.ECBEncryptBlock(c.keys.encKey[:], counterBlock)
	if err != nil {
		return nil, c.closeWith(wrapError(KindProtocolError, "failed to derive IV", err))
	}

	ciphertext, err := primitives.CBCEncrypt(c.keys.encKey[:], iv, primitives.Pad(inner))
	if err != nil {
		return nil, c.closeWith(wrapError(KindProtocolError, "failed to encrypt command", err))
	}

	raw, mac, err := c.macAndEncode(message.SessionMessageTag, ciphertext, nil)
	if err != nil {
		return nil, c.closeWith(wrapError(KindProtocolError, "failed to MAC command", err))
	}
	c.macChainValue = mac

	rawResp, err := c.transport.Send(ctx, raw)
	if err != nil {
		return nil, c.closeWith(wrapError(KindProtocolError, "transport error sending command", err))
	}

	resp, err := message.ParseResponse(rawResp, true, primitives.CryptogramSize)
	if err != nil {
		return nil, c.closeWith(wrapError(KindProtocolError, "malformed response", err))
	}

	if resp.Tag == message.ErrorTag {
		// An outer-level error means the HSM never formed a
		// SessionMessage response; we cannot tell whether the command
		// had any effect, so treat this like a transport failure.
		kind, derr := message.ParseDeviceError(resp.Payload)
		if derr != nil {
			return nil, c.closeWith(wrapError(KindProtocolError, "malformed device error", derr))
		}
		return nil, c.closeWith(newDeviceError(kind))
	}
	if resp.Tag != message.ResponseTag(message.SessionMessageTag) {
		return nil, c.closeWith(newError(KindResponseError, "unexpected tag in response"))
	}
	if resp.SessionID == nil || *resp.SessionID != c.sessionID {
		return nil, c.closeWith(newError(KindMismatchError, "response session ID does not match"))
	}

	expectedMAC, err := calculateMAC(c.keys.rmacKey[:], c.macChainValue, resp.Tag, resp.SessionID, resp.Payload)
	if err != nil {
		return nil, c.closeWith(wrapError(KindProtocolError, "failed to compute response MAC", err))
	}
	if !primitives.ConstantTimeEqual(expectedMAC[:primitives.CryptogramSize], resp.MAC) {
		return nil, c.closeWith(newError(KindVerifyFailed, "response MAC verification failed"))
	}

	// Counter advances on every send once the MAC has verified,
	// regardless of whether the decrypted inner response turns out to
	// carry a device error.
	c.counter++

	plaintext, err := primitives.CBCDecrypt(c.keys.encKey[:], iv, resp.Payload)
	if err != nil {
		return nil, c.closeWith(wrapError(KindVerifyFailed, "failed to decrypt response", err))
	}
	unpadded, err := primitives.Unpad(plaintext)
	if err != nil {
		return nil, c.closeWith(newError(KindVerifyFailed, "invalid response padding"))
	}
	if len(unpadded) < 3 {
		return nil, c.closeWith(newError(KindProtocolError, "decrypted response too short"))
	}

	innerTag := message.Tag(unpadded[0])
	innerLen := binary.BigEndian.Uint16(unpadded[1:3])
	innerPayload := unpadded[3:]
	if int(innerLen) != len(innerPayload) {
		return nil, c.closeWith(newError(KindProtocolError, "decrypted response length mismatch"))
	}

	if innerTag == message.ErrorTag {
		kind, derr := message.ParseDeviceError(innerPayload)
		if derr != nil {
			return nil, c.closeWith(wrapError(KindProtocolError, "malformed device error", derr))
		}
		if IsSessionIntegrityError(kind) {
			return nil, c.closeWith(newDeviceError(kind))
		}
		return nil, newDeviceError(kind)
	}
	if innerTag != message.ResponseTag(tag) {
		return nil, c.closeWith(newError(KindResponseError, "unexpected inner response tag"))
	}

	return innerPayload, nil
}

// closeSessionTag is the application-layer CloseSession command tag (kept
// local to securechannel only for the best-effort Close call; the full
// application command catalogue lives in package commands).
const closeSessionTag message.Tag = 0x40

// Close sends CloseSession best-effort and always transitions the channel
// to Closed, zeroizing its session keys.
func (c *SecureChannel) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st == stateClosed {
		return nil
	}
	if c.st == stateAuthenticated {
		_ = c.sendCloseSessionLocked(ctx)
	}
	c.transitionClosedLocked()
	return nil
}

func (c *SecureChannel) sendCloseSessionLocked(ctx context.Context) error {
	inner := []byte{byte(closeSessionTag), 0, 0}
	counterBlock := make([]byte, 16)
	binary.BigEndian.PutUint32(counterBlock[12:], c.counter)
	iv, err := primitives.ECBEncryptBlock(c.keys.encKey[:], counterBlock)
	if err != nil {
		return err
	}
	ciphertext, err := primitives.CBCEncrypt(c.keys.encKey[:], iv, primitives.Pad(inner))
	if err != nil {
		return err
	}
	raw, mac, err := c.macAndEncode(message.SessionMessageTag, ciphertext, nil)
	if err != nil {
		return err
	}
	c.macChainValue = mac
	_, err = c.transport.Send(ctx, raw)
	return err
}

func (c *SecureChannel) transitionClosedLocked() {
	c.st = stateClosed
	c.keys.zero()
}

// closeWith transitions the channel to Closed and returns err unchanged,
// so every failing operation can be written as `return c.closeWith(err)`.
func (c *SecureChannel) closeWith(err error) error {
	c.transitionClosedLocked()
	return err
}
