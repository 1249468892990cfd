// Package message implements the wire codec SCP03 wraps: a fixed
// tag/length/session-id envelope shared by every command sent to the HSM
// and every response it returns, independent of any particular
// application-layer command's payload schema (that catalogue lives in
// package commands).
package message

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Tag identifies the kind of a command or response message. A response's
// tag is its command's tag with ResponseTagOffset set, except for the
// distinguished error tag.
type Tag uint8

const (
	// ResponseTagOffset is OR'd into a command's tag to produce the
	// matching success-response tag.
	ResponseTagOffset Tag = 0x80

	// ErrorTag marks an error response; its payload is a single
	// DeviceErrorKind byte. It is a fixed value, not derived by OR-ing a
	// command tag.
	ErrorTag Tag = 0x7f

	// CreateSessionTag is the tag of the plaintext CreateSession command.
	CreateSessionTag Tag = 0x03
	// SessionMessageTag is the tag of an encrypted SessionMessage command.
	SessionMessageTag Tag = 0x03
	// AuthenticateSessionTag is the tag of the MAC'd, unencrypted
	// AuthenticateSession command that completes the handshake.
	AuthenticateSessionTag Tag = 0x04

	// MaxMessageSize is the largest wire message (header included) either
	// direction will accept. Anything larger is rejected before any
	// crypto work is performed.
	MaxMessageSize = 2048

	// headerSize is the tag + 16-bit length prefix common to every
	// message.
	headerSize = 3
)

// ResponseTag returns the success-response tag that corresponds to
// commandTag.
func ResponseTag(commandTag Tag) Tag {
	return commandTag | ResponseTagOffset
}

var (
	// ErrMessageTooLarge is returned when encoding or decoding would
	// exceed MaxMessageSize.
	ErrMessageTooLarge = errors.New("message: exceeds maximum wire size")
	// ErrTruncated is returned when a buffer is shorter than its header
	// declares.
	ErrTruncated = errors.New("message: truncated message")
)

// Command is a single outgoing command message: a tag, an optional
// session ID (absent only for the very first CreateSession command of a
// handshake), and a payload. MAC is filled in by the secure channel
// immediately before the command is sent and is never set by callers.
//
// UUID is generated once per Command for host-side logging/tracing only;
// it never appears on the wire.
type Command struct {
	UUID      uuid.UUID
	Tag       Tag
	SessionID *uint8
	Payload   []byte
	MAC       []byte
}

// NewCommand builds a Command with a fresh trace UUID.
func NewCommand(tag Tag, payload []byte) *Command {
	return &Command{
		UUID:    uuid.New(),
		Tag:     tag,
		Payload: payload,
	}
}

// bodyLength is the number of bytes following the 3-byte header: the
// optional session ID, the payload, and the MAC.
func (c *Command) bodyLength() int {
	n := len(c.Payload) + len(c.MAC)
	if c.SessionID != nil {
		n++
	}
	return n
}

// Encode serializes the command to its wire form: tag | len(2) |
// session_id?(1) | payload | mac.
func (c *Command) Encode() ([]byte, error) {
	body := c.bodyLength()
	total := headerSize + body
	if total > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}

	out := make([]byte, 0, total)
	out = append(out, byte(c.Tag))
	out = binary.BigEndian.AppendUint16(out, uint16(body))
	if c.SessionID != nil {
		out = append(out, *c.SessionID)
	}
	out = append(out, c.Payload...)
	out = append(out, c.MAC...)
	return out, nil
}

// Response is a single incoming response message, as parsed by
// ParseResponse.
type Response struct {
	Tag       Tag
	SessionID *uint8
	Payload   []byte
	MAC       []byte
}

// ParseResponse decodes a raw response frame. It validates the outer
// envelope (tag, length, size limit) but does not interpret Payload —
// that is left to the caller, since a SessionMessage response's payload is
// still ciphertext at this layer.
//
// hasSessionID controls whether the byte immediately after the length
// prefix is consumed as a session ID; the plaintext CreateSession response
// carries no session ID of its own (the session ID is part of its
// payload), while every other response does. macLen is the trailing MAC
// size to split off (0 for unauthenticated responses like CreateSession).
func ParseResponse(data []byte, hasSessionID bool, macLen int) (*Response, error) {
	if len(data) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}
	if len(data) < headerSize {
		return nil, ErrTruncated
	}

	tag := Tag(data[0])
	length := binary.BigEndian.Uint16(data[1:3])
	rest := data[headerSize:]
	if int(length) != len(rest) {
		return nil, fmt.Errorf("message: declared length %d does not match body length %d", length, len(rest))
	}

	resp := &Response{Tag: tag}

	if tag == ErrorTag {
		resp.Payload = rest
		return resp, nil
	}

	if hasSessionID {
		if len(rest) < 1 {
			return nil, ErrTruncated
		}
		sid := rest[0]
		resp.SessionID = &sid
		rest = rest[1:]
	}

	if macLen > 0 {
		if len(rest) < macLen {
			return nil, ErrTruncated
		}
		resp.MAC = rest[len(rest)-macLen:]
		rest = rest[:len(rest)-macLen]
	}

	resp.Payload = rest
	return resp, nil
}

// DeviceErrorKind enumerates the structured error codes an HSM can return
// in an ErrorTag response.
type DeviceErrorKind byte

const (
	DeviceErrorInvalidCommand          DeviceErrorKind = 0x01
	DeviceErrorInvalidData             DeviceErrorKind = 0x02
	DeviceErrorInvalidSession          DeviceErrorKind = 0x03
	DeviceErrorAuthenticationFailed    DeviceErrorKind = 0x04
	DeviceErrorSessionFull             DeviceErrorKind = 0x05
	DeviceErrorSessionExpired          DeviceErrorKind = 0x06
	DeviceErrorStorageFailed           DeviceErrorKind = 0x07
	DeviceErrorWrongLength             DeviceErrorKind = 0x08
	DeviceErrorInsufficientPermissions DeviceErrorKind = 0x09
	DeviceErrorLogFull                 DeviceErrorKind = 0x0a
	DeviceErrorObjectNotFound          DeviceErrorKind = 0x0b
	DeviceErrorInvalidID               DeviceErrorKind = 0x0c
	DeviceErrorInvalidOTP              DeviceErrorKind = 0x0d
	DeviceErrorDemoMode                DeviceErrorKind = 0x0e
	DeviceErrorSSHCAConstraintViolation DeviceErrorKind = 0x10
	DeviceErrorCommandUnexecuted        DeviceErrorKind = 0xff
)

func (k DeviceErrorKind) String() string {
	switch k {
	case DeviceErrorInvalidCommand:
		return "invalid command"
	case DeviceErrorInvalidData:
		return "invalid data"
	case DeviceErrorInvalidSession:
		return "invalid session"
	case DeviceErrorAuthenticationFailed:
		return "authentication failed"
	case DeviceErrorSessionFull:
		return "session full"
	case DeviceErrorSessionExpired:
		return "session expired"
	case DeviceErrorStorageFailed:
		return "storage failed"
	case DeviceErrorWrongLength:
		return "wrong length"
	case DeviceErrorInsufficientPermissions:
		return "insufficient permissions"
	case DeviceErrorLogFull:
		return "log full"
	case DeviceErrorObjectNotFound:
		return "object not found"
	case DeviceErrorInvalidID:
		return "invalid id"
	case DeviceErrorInvalidOTP:
		return "invalid OTP"
	case DeviceErrorDemoMode:
		return "demo mode"
	case DeviceErrorSSHCAConstraintViolation:
		return "SSH CA constraint violation"
	case DeviceErrorCommandUnexecuted:
		return "command unexecuted"
	default:
		return fmt.Sprintf("unknown device error (0x%02x)", byte(k))
	}
}

// ParseDeviceError interprets an ErrorTag response's single-byte payload.
func ParseDeviceError(payload []byte) (DeviceErrorKind, error) {
	if len(payload) != 1 {
		return 0, errors.New("message: device error payload must be exactly 1 byte")
	}
	return DeviceErrorKind(payload[0]), nil
}
