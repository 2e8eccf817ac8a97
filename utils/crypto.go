package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	ErrInvalidEncryptionKey = errors.New("encryption key must be exactly 32 characters")
	ErrCiphertextTooShort   = errors.New("ciphertext too short")
)

// Sealer encrypts data at rest with AES-256-GCM. Sealed values are
// base64(nonce|ciphertext) so they fit in text and JSON columns.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer validates the key once; the returned Sealer is safe for
// concurrent use.
func NewSealer(key string) (*Sealer, error) {
	if len(key) != 32 {
		return nil, ErrInvalidEncryptionKey
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

func (s *Sealer) Seal(plaintext []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Sealer) Open(sealed string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("decode sealed value: %w", err)
	}
	n := s.aead.NonceSize()
	if len(raw) < n {
		return nil, ErrCiphertextTooShort
	}
	return s.aead.Open(nil, raw[:n], raw[n:], nil)
}
