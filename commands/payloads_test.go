package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAsymmetricKeyPayload(t *testing.T) {
	payload, err := GenerateAsymmetricKey(2, []byte("myKey"), Domain1, CapabilityAsymmetricSignEddsa, AlgorithmED25519)
	require.NoError(t, err)
	require.Len(t, payload, 2+LabelLength+2+8+1)
	require.Equal(t, []byte{0x00, 0x02}, payload[:2])
	require.Equal(t, byte(AlgorithmED25519), payload[len(payload)-1])
}

func TestGenerateAsymmetricKeyRejectsOversizeLabel(t *testing.T) {
	_, err := GenerateAsymmetricKey(2, make([]byte, LabelLength+1), Domain1, 0, AlgorithmED25519)
	require.Error(t, err)
}

func TestSignDataEddsaPayload(t *testing.T) {
	payload := SignDataEddsa(7, []byte("message"))
	require.Equal(t, []byte{0x00, 0x07}, payload[:2])
	require.Equal(t, []byte("message"), payload[2:])
}

func TestParseGenerateAsymmetricKeyResponse(t *testing.T) {
	resp, err := ParseGenerateAsymmetricKeyResponse([]byte{0x00, 0x2a})
	require.NoError(t, err)
	require.Equal(t, uint16(42), resp.KeyID)
}

func TestParseListObjectsResponse(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x03, 0x01, 0x00, 0x02, 0x02, 0x01}
	resp, err := ParseListObjectsResponse(payload)
	require.NoError(t, err)
	require.Len(t, resp.Objects, 2)
	require.Equal(t, uint16(1), resp.Objects[0].ObjectID)
	require.Equal(t, uint8(0x03), resp.Objects[0].ObjectType)
}

func TestParseListObjectsResponseRejectsMisalignedLength(t *testing.T) {
	_, err := ParseListObjectsResponse([]byte{0x01, 0x02, 0x03})
	require.Error(t, err)
}

func TestParseGetPubKeyResponse(t *testing.T) {
	resp, err := ParseGetPubKeyResponse(append([]byte{byte(AlgorithmED25519)}, []byte("pubkeybytes")...))
	require.NoError(t, err)
	require.Equal(t, AlgorithmED25519, resp.Algorithm)
	require.Equal(t, []byte("pubkeybytes"), resp.KeyData)
}

func TestParseDeviceInfoResponse(t *testing.T) {
	payload := []byte{2, 2, 0, 0, 0, 0x12, 0x34, 62, 3, 1, 2, 3}
	resp, err := ParseDeviceInfoResponse(payload)
	require.NoError(t, err)
	require.Equal(t, uint8(2), resp.VersionMajor)
	require.Equal(t, uint32(0x1234), resp.SerialNumber)
	require.Equal(t, []uint8{1, 2, 3}, resp.Algorithms)
}
