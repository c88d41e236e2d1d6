package service

import (
	cryptoDomain "github.com/allisson/provenance/internal/crypto/domain"
)

// EnvelopeCipher seals plaintext records into self-contained envelopes.
//
// The envelope layout is nonce ‖ ciphertext ‖ tag: the nonce is prepended so a
// single opaque byte string is the only thing ever persisted or transmitted.
// The ciphertext portion has the same length as the plaintext; the tag is the
// AEAD's authentication overhead.
type EnvelopeCipher struct {
	aead AEAD
}

// NewEnvelopeCipher creates an EnvelopeCipher for the given key and algorithm.
// The caller retains ownership of key and should zero it after this returns.
// Returns ErrInvalidKeySize or ErrUnsupportedAlgorithm on bad input.
func NewEnvelopeCipher(key []byte, alg cryptoDomain.Algorithm, manager AEADManager) (*EnvelopeCipher, error) {
	aead, err := manager.CreateCipher(key, alg)
	if err != nil {
		return nil, err
	}
	return &EnvelopeCipher{aead: aead}, nil
}

// Seal encrypts plaintext and returns the envelope (nonce ‖ ciphertext ‖ tag).
// A fresh nonce is generated on every call, so sealing the same plaintext twice
// yields different envelopes.
func (e *EnvelopeCipher) Seal(plaintext []byte) ([]byte, error) {
	ciphertext, nonce, err := e.aead.Encrypt(plaintext, nil)
	if err != nil {
		return nil, err
	}

	envelope := make([]byte, 0, len(nonce)+len(ciphertext))
	envelope = append(envelope, nonce...)
	envelope = append(envelope, ciphertext...)
	return envelope, nil
}

// Open authenticates and decrypts an envelope produced by Seal.
//
// Returns ErrInvalidEnvelope if the envelope is too short to contain a nonce
// and tag, and ErrDecryptionFailed if authentication fails (tampered nonce,
// ciphertext or tag, or wrong key).
func (e *EnvelopeCipher) Open(envelope []byte) ([]byte, error) {
	nonceSize := e.aead.NonceSize()
	if len(envelope) < nonceSize+e.aead.Overhead() {
		return nil, cryptoDomain.ErrInvalidEnvelope
	}

	nonce := envelope[:nonceSize]
	ciphertext := envelope[nonceSize:]
	return e.aead.Decrypt(ciphertext, nonce, nil)
}
