package primitives

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPadUnpadRoundTrip(t *testing.T) {
	for n := 0; n <= 33; n++ {
		src := make([]byte, n)
		for i := range src {
			src[i] = byte(i + 1)
		}

		padded := Pad(src)
		require.NotZero(t, len(padded)-len(src), "padding must never be skipped, got len %d", len(padded))
		require.Equal(t, 0, len(padded)%16)
		require.Greater(t, len(padded), len(src))
		require.LessOrEqual(t, len(padded)-len(src), 16)

		unpadded, err := Unpad(padded)
		require.NoError(t, err)
		require.Equal(t, src, unpadded)
	}
}

func TestPadEmptyPayload(t *testing.T) {
	padded := Pad(nil)
	require.Equal(t, append([]byte{0x80}, make([]byte, 15)...), padded)
}

func TestUnpadRejectsMissingMarker(t *testing.T) {
	bad := make([]byte, 16)
	_, err := Unpad(bad)
	require.Error(t, err)
}

func TestUnpadRejectsUnpaddedLength(t *testing.T) {
	_, err := Unpad([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestPBKDF2KnownAnswer(t *testing.T) {
	derived := PBKDF2HMACSHA256([]byte("password"), []byte(PBKDF2Salt), PBKDF2Iterations, PBKDF2OutputLen)
	require.Len(t, derived, 32)

	expectedEnc := []byte{0x09, 0x0b, 0x47, 0xdb, 0xed, 0x59, 0x56, 0x54, 0x90, 0x1d, 0xee, 0x1c, 0xc6, 0x55, 0xe4, 0x20}
	expectedMac := []byte{0x59, 0x2f, 0xd4, 0x83, 0xf7, 0x59, 0xe2, 0x99, 0x09, 0xa0, 0x4c, 0x45, 0x05, 0xd2, 0xce, 0x0a}

	require.Equal(t, expectedEnc, derived[:16])
	require.Equal(t, expectedMac, derived[16:])
}

func TestConstantTimeEqual(t *testing.T) {
	require.True(t, ConstantTimeEqual([]byte{1, 2, 3}, []byte{1, 2, 3}))
	require.False(t, ConstantTimeEqual([]byte{1, 2, 3}, []byte{1, 2, 4}))
	require.False(t, ConstantTimeEqual([]byte{1, 2, 3}, []byte{1, 2}))
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Zero(b)
	require.Equal(t, []byte{0, 0, 0, 0}, b)
}

func TestCBCEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	iv := make([]byte, 16)

	for n := 0; n <= 200; n += 7 {
		plaintext := make([]byte, n)
		for i := range plaintext {
			plaintext[i] = byte(i * 3)
		}

		padded := Pad(plaintext)
		ciphertext, err := CBCEncrypt(key, iv, padded)
		require.NoError(t, err)

		decrypted, err := CBCDecrypt(key, iv, ciphertext)
		require.NoError(t, err)

		unpadded, err := Unpad(decrypted)
		require.NoError(t, err)
		require.Equal(t, plaintext, unpadded)
	}
}

func TestCMACDeterministic(t *testing.T) {
	key := make([]byte, KeySize)
	data := []byte("some data to mac")

	first, err := CMAC(key, data)
	require.NoError(t, err)
	second, err := CMAC(key, data)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, first, 16)
}
