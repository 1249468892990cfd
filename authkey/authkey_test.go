package authkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromPasswordKnownAnswer(t *testing.T) {
	k := FromPassword("password")
	require.Equal(t, []byte{0x09, 0x0b, 0x47, 0xdb, 0xed, 0x59, 0x56, 0x54, 0x90, 0x1d, 0xee, 0x1c, 0xc6, 0x55, 0xe4, 0x20}, k.EncKey())
	require.Equal(t, []byte{0x59, 0x2f, 0xd4, 0x83, 0xf7, 0x59, 0xe2, 0x99, 0x09, 0xa0, 0x4c, 0x45, 0x05, 0xd2, 0xce, 0x0a}, k.MacKey())
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	_, err := FromBytes(make([]byte, 10))
	require.Error(t, err)
}

func TestZero(t *testing.T) {
	k := FromPassword("password")
	k.Zero()
	require.Equal(t, make([]byte, 16), k.EncKey())
	require.Equal(t, make([]byte, 16), k.MacKey())
}
