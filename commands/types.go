package commands

import "github.com/yubihsm/scp03/message"

// Algorithm identifies an asymmetric/symmetric/HMAC algorithm as understood
// by the HSM's object model.
type Algorithm uint8

const (
	// LabelLength is the fixed length of an object label.
	LabelLength = 40

	// Tag values for the application commands this package builds payloads
	// for. CreateSession/AuthenticateSession/SessionMessage are defined in
	// package message and not repeated here.
	TagEcho                  = message.Tag(0x01)
	TagDeviceInfo            = message.Tag(0x06)
	TagReset                 = message.Tag(0x08)
	TagCloseSession          = message.Tag(0x40)
	TagPutAsymmetricKey      = message.Tag(0x45)
	TagGenerateAsymmetricKey = message.Tag(0x46)
	TagSignDataPkcs1         = message.Tag(0x47)
	TagListObjects           = message.Tag(0x48)
	TagExportWrapped         = message.Tag(0x4a)
	TagImportWrapped         = message.Tag(0x4b)
	TagPutWrapKey            = message.Tag(0x4c)
	TagGetObjectInfo         = message.Tag(0x4e)
	TagGetPubKey             = message.Tag(0x54)
	TagSignDataPss           = message.Tag(0x55)
	TagSignDataEcdsa         = message.Tag(0x56)
	TagDeleteObject          = message.Tag(0x58)
	TagSignDataEddsa         = message.Tag(0x6a)

	// Algorithms
	AlgorithmP256      Algorithm = 12
	AlgorithmSecp256k1 Algorithm = 15
	AlgorithmED25519   Algorithm = 46

	// Capabilities
	CapabilityGetOpaque             uint64 = 0x0000000000000001
	CapabilityPutOpaque             uint64 = 0x0000000000000002
	CapabilityPutAuthKey            uint64 = 0x0000000000000004
	CapabilityPutAsymmetric         uint64 = 0x0000000000000008
	CapabilityAsymmetricGen         uint64 = 0x0000000000000010
	CapabilityAsymmetricSignPkcs    uint64 = 0x0000000000000020
	CapabilityAsymmetricSignPss     uint64 = 0x0000000000000040
	CapabilityAsymmetricSignEcdsa   uint64 = 0x0000000000000080
	CapabilityAsymmetricSignEddsa   uint64 = 0x0000000000000100
	CapabilityAsymmetricDecryptPkcs uint64 = 0x0000000000000200
	CapabilityAsymmetricDecryptOaep uint64 = 0x0000000000000400
	CapabilityAsymmetricDecryptEcdh uint64 = 0x0000000000000800
	CapabilityExportWrapped         uint64 = 0x0000000000001000
	CapabilityImportWrapped         uint64 = 0x0000000000002000
	CapabilityPutWrapKey            uint64 = 0x0000000000004000
	CapabilityDeleteAsymmetric      uint64 = 0x0000020000000000

	// Domains
	Domain1  uint16 = 0x0001
	Domain2  uint16 = 0x0002
	Domain3  uint16 = 0x0004
	Domain4  uint16 = 0x0008
	Domain5  uint16 = 0x0010
	Domain6  uint16 = 0x0020
	Domain7  uint16 = 0x0040
	Domain8  uint16 = 0x0080
	Domain9  uint16 = 0x0100
	Domain10 uint16 = 0x0200
	Domain11 uint16 = 0x0400
	Domain12 uint16 = 0x0800
	Domain13 uint16 = 0x1000
	Domain14 uint16 = 0x2000
	Domain15 uint16 = 0x4000
	Domain16 uint16 = 0x8000

	// Object types
	ObjectTypeOpaque            uint8 = 0x01
	ObjectTypeAuthenticationKey uint8 = 0x02
	ObjectTypeAsymmetricKey     uint8 = 0x03
	ObjectTypeWrapKey           uint8 = 0x04
	ObjectTypeHmacKey           uint8 = 0x05
	ObjectTypeTemplate          uint8 = 0x06
	ObjectTypeOtpAeadKey        uint8 = 0x07

	// ListObjects filter parameter tags
	ListObjectParamID   uint8 = 0x01
	ListObjectParamType uint8 = 0x02
)
