package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// SecretKeySize is the AES-256 key length required by NewSecretSealer
const SecretKeySize = 32

// sealedPrefix marks values produced by Seal so plain values stored before
// sealing was enabled can still be read.
const sealedPrefix = "sealed:v1:"

var ErrMalformedSecret = errors.New("malformed sealed secret")

// SecretSealer encrypts secret access keys for storage at rest
type SecretSealer struct {
	aead cipher.AEAD
}

// NewSecretSealer creates a sealer from a 32-byte key
func NewSecretSealer(key []byte) (*SecretSealer, error) {
	if len(key) != SecretKeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", SecretKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &SecretSealer{aead: gcm}, nil
}

// Seal encrypts plaintext with a random nonce
func (s *SecretSealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a value produced by Seal. Values without the sealed prefix
// are returned unchanged.
func (s *SecretSealer) Open(value string) (string, error) {
	if len(value) < len(sealedPrefix) || value[:len(sealedPrefix)] != sealedPrefix {
		return value, nil
	}

	ciphertext, err := base64.URLEncoding.DecodeString(value[len(sealedPrefix):])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedSecret, err)
	}

	if len(ciphertext) < s.aead.NonceSize() {
		return "", ErrMalformedSecret
	}

	nonce, ciphertext := ciphertext[:s.aead.NonceSize()], ciphertext[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedSecret, err)
	}
	return string(plaintext), nil
}
