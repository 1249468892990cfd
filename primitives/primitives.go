// Package primitives implements the cryptographic building blocks used by
// the SCP03 secure channel: single-block AES, CBC encryption with the
// SCP03 padding scheme, AES-CMAC, PBKDF2 credential derivation and
// constant-time comparison.
//
// Nothing in this package is SCP03-specific beyond the padding rule; the
// session-key derivation logic that consumes these primitives lives in
// package securechannel.
package primitives

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	"github.com/enceve/crypto/cmac"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the size in bytes of every AES-128 key used by SCP03.
	KeySize = 16
	// ChallengeSize is the size in bytes of a host or card challenge.
	ChallengeSize = 8
	// CryptogramSize is the size in bytes of a handshake cryptogram or
	// truncated command/response MAC.
	CryptogramSize = 8

	// PBKDF2Salt is the fixed salt used to derive an AuthenticationKey
	// from a password.
	PBKDF2Salt = "Yubico"
	// PBKDF2Iterations is the iteration count used for password-based
	// AuthenticationKey derivation.
	PBKDF2Iterations = 10000
	// PBKDF2OutputLen is the number of bytes produced by password-based
	// AuthenticationKey derivation (enc key || mac key).
	PBKDF2OutputLen = 32
)

// ECBEncryptBlock encrypts a single 16-byte block under key using AES-128
// in ECB mode. It is used only to mask the command counter into an IV and
// must never be used for anything else.
func ECBEncryptBlock(key, block []byte) ([]byte, error) {
	if len(block) != aes.BlockSize {
		return nil, errors.New("primitives: block must be 16 bytes")
	}
	cipherBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, aes.BlockSize)
	cipherBlock.Encrypt(out, block)
	return out, nil
}

// CBCEncrypt encrypts plaintext (which must already be a multiple of the
// AES block size, see Pad) under key/iv using AES-128-CBC.
func CBCEncrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, errors.New("primitives: plaintext is not block aligned")
	}
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)
	return ciphertext, nil
}

// CBCDecrypt decrypts ciphertext (which must be a multiple of the AES
// block size) under key/iv using AES-128-CBC.
func CBCDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("primitives: ciphertext is not block aligned")
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}

// Pad appends SCP03 padding to src: a single 0x80 byte followed by as many
// 0x00 bytes as needed to reach a multiple of the AES block size. Unlike a
// plain ISO 9797-1 method-2 pad that skips padding when src is already
// block-aligned, SCP03 always adds padding, so a full 16-byte pad block is
// appended when len(src) is already a multiple of 16.
func Pad(src []byte) []byte {
	padding := aes.BlockSize - len(src)%aes.BlockSize
	out := make([]byte, len(src), len(src)+padding)
	copy(out, src)
	out = append(out, 0x80)
	out = append(out, make([]byte, padding-1)...)
	return out
}

// Unpad strips SCP03 padding from src: trailing 0x00 bytes followed by a
// single 0x80 byte. It returns an error if no 0x80 byte is found within the
// last block, which signals a corrupted or forged message rather than
// attempting to recover a best-effort plaintext.
func Unpad(src []byte) ([]byte, error) {
	if len(src) == 0 || len(src)%aes.BlockSize != 0 {
		return nil, errors.New("primitives: padded data must be a non-empty multiple of the block size")
	}

	start := len(src) - aes.BlockSize
	for i := len(src) - 1; i >= start; i-- {
		switch src[i] {
		case 0x00:
			continue
		case 0x80:
			return src[:i], nil
		default:
			return nil, errors.New("primitives: invalid padding")
		}
	}
	return nil, errors.New("primitives: invalid padding")
}

// CMAC computes AES-128-CMAC over data under key.
func CMAC(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	mac, err := cmac.New(block)
	if err != nil {
		return nil, err
	}
	mac.Write(data)
	return mac.Sum(nil), nil
}

// PBKDF2HMACSHA256 derives outLen bytes from password and salt using
// PBKDF2-HMAC-SHA256 with the given iteration count.
func PBKDF2HMACSHA256(password, salt []byte, iterations, outLen int) []byte {
	return pbkdf2.Key(password, salt, iterations, outLen, sha256.New)
}

// ConstantTimeEqual reports whether a and b are equal using a
// constant-time comparison. Unequal-length inputs are never equal and are
// rejected before any byte comparison, since the secrets this guards
// (cryptograms, MACs) always have a known fixed length.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Zero overwrites b with zero bytes in place. Called on every code path
// that is finished with key material, a cryptogram, or a derivation
// intermediate.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
