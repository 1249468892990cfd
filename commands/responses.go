package commands

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// DeviceInfoResponse describes the HSM's firmware version, log store
// state, and supported algorithm list.
type DeviceInfoResponse struct {
	VersionMajor uint8
	VersionMinor uint8
	VersionPatch uint8
	SerialNumber uint32
	LogStoreSize uint8
	LogStoreUsed uint8
	Algorithms   []uint8
}

// ParseDeviceInfoResponse parses a DeviceInfo response payload.
func ParseDeviceInfoResponse(payload []byte) (*DeviceInfoResponse, error) {
	if len(payload) < 9 {
		return nil, errors.New("commands: device info response too short")
	}
	return &DeviceInfoResponse{
		VersionMajor: payload[0],
		VersionMinor: payload[1],
		VersionPatch: payload[2],
		SerialNumber: binary.BigEndian.Uint32(payload[3:7]),
		LogStoreSize: payload[7],
		LogStoreUsed: payload[8],
		Algorithms:   append([]byte(nil), payload[9:]...),
	}, nil
}

// GenerateAsymmetricKeyResponse reports the ID of a newly generated key.
type GenerateAsymmetricKeyResponse struct {
	KeyID uint16
}

// ParseGenerateAsymmetricKeyResponse parses a GenerateAsymmetricKey
// response payload.
func ParseGenerateAsymmetricKeyResponse(payload []byte) (*GenerateAsymmetricKeyResponse, error) {
	if len(payload) != 2 {
		return nil, errors.New("commands: invalid generate-asymmetric-key response length")
	}
	return &GenerateAsymmetricKeyResponse{KeyID: binary.BigEndian.Uint16(payload)}, nil
}

// PutAsymmetricKeyResponse reports the ID of an imported key.
type PutAsymmetricKeyResponse struct {
	KeyID uint16
}

// ParsePutAsymmetricKeyResponse parses a PutAsymmetricKey response payload.
func ParsePutAsymmetricKeyResponse(payload []byte) (*PutAsymmetricKeyResponse, error) {
	if len(payload) != 2 {
		return nil, errors.New("commands: invalid put-asymmetric-key response length")
	}
	return &PutAsymmetricKeyResponse{KeyID: binary.BigEndian.Uint16(payload)}, nil
}

// ObjectInfoResponse describes an object's metadata as returned by
// GetObjectInfo.
type ObjectInfoResponse struct {
	Capabilities          uint64
	ObjectID              uint16
	Length                uint16
	Domains               uint16
	Type                  uint8
	Algorithm             Algorithm
	Sequence              uint8
	Origin                uint8
	Label                 [LabelLength]byte
	DelegatedCapabilities uint64
}

// ParseGetObjectInfoResponse parses a GetObjectInfo response payload.
func ParseGetObjectInfoResponse(payload []byte) (*ObjectInfoResponse, error) {
	resp := &ObjectInfoResponse{}
	if err := binary.Read(bytes.NewReader(payload), binary.BigEndian, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Object is one entry of a ListObjects response.
type Object struct {
	ObjectID   uint16
	ObjectType uint8
	Sequence   uint8
}

// ListObjectsResponse is the full set of objects matching a ListObjects
// query.
type ListObjectsResponse struct {
	Objects []Object
}

// ParseListObjectsResponse parses a ListObjects response payload.
func ParseListObjectsResponse(payload []byte) (*ListObjectsResponse, error) {
	const entrySize = 4
	if len(payload)%entrySize != 0 {
		return nil, errors.New("commands: invalid list-objects response length")
	}
	resp := &ListObjectsResponse{Objects: make([]Object, len(payload)/entrySize)}
	if err := binary.Read(bytes.NewReader(payload), binary.BigEndian, &resp.Objects); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetPubKeyResponse carries the public key material returned for an
// asymmetric key; the encoding of KeyData depends on Algorithm.
type GetPubKeyResponse struct {
	Algorithm Algorithm
	KeyData   []byte
}

// ParseGetPubKeyResponse parses a GetPubKey response payload.
func ParseGetPubKeyResponse(payload []byte) (*GetPubKeyResponse, error) {
	if len(payload) < 1 {
		return nil, errors.New("commands: invalid get-pubkey response length")
	}
	return &GetPubKeyResponse{Algorithm: Algorithm(payload[0]), KeyData: payload[1:]}, nil
}

// ParseSignDataResponse returns the signature bytes from a SignData*
// response payload; all signing commands return the bare signature.
func ParseSignDataResponse(payload []byte) []byte {
	return payload
}

// ParseEchoResponse returns an Echo response payload unchanged.
func ParseEchoResponse(payload []byte) []byte {
	return payload
}
