// Package cryptox contains the one-way primitives used for credential
// handling: argon2id key derivation and SHA-256 digests.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of salts generated for password digests.
const SaltSize = 16

// DeriveKey stretches password with salt using argon2id (t=1, m=64MiB, p=4)
// and returns a 32-byte key.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier returns SHA-256(key).
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// HashPassword returns the hex encoded verifier of the argon2id-derived key.
// The result is fixed length (64 hex chars) and cannot be reversed.
//
// Parameters:
//   - password: the plaintext password; the caller wipes it afterwards.
//   - salt: SaltSize random bytes stored next to the digest.
//
// Returns:
//   - the digest to persist and later compare with EqualDigest.
//
// Example:
//
//	salt := common.GenerateRandByteArray(cryptox.SaltSize)
//	digest := cryptox.HashPassword([]byte(pw), salt)
//	ok := cryptox.EqualDigest(digest, cryptox.HashPassword([]byte(attempt), salt))
func HashPassword(password []byte, salt []byte) string {
	return hex.EncodeToString(MakeVerifier(DeriveKey(password, salt)))
}

// EqualDigest compares two hex digests in constant time. Digests of
// different length are never equal.
func EqualDigest(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
