// Package commands builds payloads for, and parses responses from, the
// HSM's application command catalogue: the object/key management,
// signing, and diagnostic operations that ride inside an authenticated
// SecureChannel's SessionMessage once the handshake (package
// securechannel) has completed. Nothing here touches the wire envelope,
// MAC, or encryption — callers hand a (tag, payload) pair to
// SecureChannel.SendEncryptedCommand and get back a decrypted payload to
// parse with the matching Parse* function.
package commands

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// Echo returns data unchanged as a command payload; the HSM echoes it
// back verbatim, making it useful for session liveness checks.
func Echo(data []byte) []byte { return data }

// DeviceInfo builds the (empty) DeviceInfo command payload.
func DeviceInfo() []byte { return nil }

// Reset builds the (empty) Reset command payload. The HSM does not reply
// before rebooting, so callers should not wait for a response.
func Reset() []byte { return nil }

// CloseSession builds the (empty) CloseSession command payload.
func CloseSession() []byte { return nil }

// GenerateAsymmetricKey builds the payload to generate a new asymmetric
// key pair inside the HSM at keyID.
func GenerateAsymmetricKey(keyID uint16, label []byte, domains uint16, capabilities uint64, algorithm Algorithm) ([]byte, error) {
	paddedLabel, err := padLabel(label)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, keyID)
	buf.Write(paddedLabel)
	binary.Write(buf, binary.BigEndian, domains)
	binary.Write(buf, binary.BigEndian, capabilities)
	binary.Write(buf, binary.BigEndian, algorithm)
	return buf.Bytes(), nil
}

// PutAsymmetricKey builds the payload to import an existing asymmetric
// key pair's private component(s) into the HSM at keyID.
func PutAsymmetricKey(keyID uint16, label []byte, domains uint16, capabilities uint64, algorithm Algorithm, keyParts ...[]byte) ([]byte, error) {
	paddedLabel, err := padLabel(label)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, keyID)
	buf.Write(paddedLabel)
	binary.Write(buf, binary.BigEndian, domains)
	binary.Write(buf, binary.BigEndian, capabilities)
	binary.Write(buf, binary.BigEndian, algorithm)
	for _, part := range keyParts {
		buf.Write(part)
	}
	return buf.Bytes(), nil
}

// SignDataEddsa builds the payload to sign data with the Ed25519 key at
// keyID.
func SignDataEddsa(keyID uint16, data []byte) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, keyID)
	buf.Write(data)
	return buf.Bytes()
}

// SignDataEcdsa builds the payload to sign a digest with the ECDSA key at
// keyID.
func SignDataEcdsa(keyID uint16, digest []byte) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, keyID)
	buf.Write(digest)
	return buf.Bytes()
}

// GetPubKey builds the payload to retrieve the public half of the
// asymmetric key at keyID.
func GetPubKey(keyID uint16) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, keyID)
	return buf.Bytes()
}

// GetObjectInfo builds the payload to retrieve metadata about an object.
func GetObjectInfo(objectID uint16, objectType uint8) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, objectID)
	buf.WriteByte(objectType)
	return buf.Bytes()
}

// DeleteObject builds the payload to remove an object from the HSM.
func DeleteObject(objectID uint16, objectType uint8) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, objectID)
	buf.WriteByte(objectType)
	return buf.Bytes()
}

// ListFilter is one (tag, value) TLV filter applied to ListObjects; see
// ListObjectParamID/ListObjectParamType.
type ListFilter struct {
	Param uint8
	Value []byte
}

// ListObjects builds the payload to enumerate objects, optionally
// narrowed by filters.
func ListObjects(filters ...ListFilter) []byte {
	buf := new(bytes.Buffer)
	for _, f := range filters {
		buf.WriteByte(f.Param)
		buf.Write(f.Value)
	}
	return buf.Bytes()
}

func padLabel(label []byte) ([]byte, error) {
	if len(label) > LabelLength {
		return nil, errors.New("commands: label exceeds maximum length")
	}
	padded := make([]byte, LabelLength)
	copy(padded, label)
	return padded, nil
}
