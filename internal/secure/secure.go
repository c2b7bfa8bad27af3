// Package secure: static-key AEAD for the catalog wire protocol (XChaCha20-Poly1305).
package secure

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the shared symmetric key size.
	KeySize = chacha20poly1305.KeySize
	// NonceSize for XChaCha20-Poly1305; a fresh random nonce per encryption.
	NonceSize = chacha20poly1305.NonceSizeX
	// TagSize is the Poly1305 authenticator size.
	TagSize = chacha20poly1305.Overhead
)

// ErrAuthFailed: tag verification failed on decrypt (tamper/corruption).
// Distinct from transport errors; the transport retries on it.
var ErrAuthFailed = errors.New("secure: authentication failed")

// ErrBadKeyFile: key file exists but does not hold exactly KeySize bytes.
var ErrBadKeyFile = errors.New("secure: malformed key file")

// LoadOrCreateKey reads the key at path, or generates one and persists it (0600)
// if the file does not exist. Both endpoints must load byte-identical material.
func LoadOrCreateKey(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		if len(b) != KeySize {
			return nil, fmt.Errorf("%w: %s has %d bytes, want %d", ErrBadKeyFile, path, len(b), KeySize)
		}
		return b, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

// Engine encrypts/decrypts opaque payloads under one immutable key.
// Construct once per process and inject into each transport; no globals.
type Engine struct {
	aead cipher.AEAD
}

// NewEngine builds an engine from a KeySize-byte key.
func NewEngine(key []byte) (*Engine, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("secure: key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Engine{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce. Ciphertext has the same
// length as the plaintext (no padding); tag and nonce are fixed-size.
func (e *Engine) Encrypt(plaintext []byte) (ciphertext, tag, nonce []byte, err error) {
	nonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, nil, err
	}
	sealed := e.aead.Seal(nil, nonce, plaintext, nil)
	return sealed[:len(plaintext)], sealed[len(plaintext):], nonce, nil
}

// Decrypt verifies the tag and returns the plaintext, or ErrAuthFailed without
// releasing any partial plaintext.
func (e *Engine) Decrypt(ciphertext, tag, nonce []byte) ([]byte, error) {
	if len(tag) != TagSize || len(nonce) != NonceSize {
		return nil, ErrAuthFailed
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}
