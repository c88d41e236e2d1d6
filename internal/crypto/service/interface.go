// Package service provides cryptographic services for sealing provenance records.
// Implements AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305) and the envelope codec
// used by the local record store.
package service

import (
	cryptoDomain "github.com/allisson/provenance/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	// The ciphertext includes the authentication tag appended by the cipher.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)

	// NonceSize returns the nonce length in bytes required by the cipher.
	NonceSize() int

	// Overhead returns the authentication tag length in bytes.
	Overhead() int
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}
