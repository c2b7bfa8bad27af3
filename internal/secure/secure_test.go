package secure

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)
	e, err := NewEngine(key)
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("an item listing")
	ct, tag, nonce, err := e.Encrypt(msg)
	if err != nil {
		t.Fatal(err)
	}
	if len(ct) != len(msg) {
		t.Fatalf("ciphertext length %d, want %d (no padding)", len(ct), len(msg))
	}
	if len(tag) != TagSize || len(nonce) != NonceSize {
		t.Fatalf("tag/nonce sizes %d/%d", len(tag), len(nonce))
	}
	pt, err := e.Decrypt(ct, tag, nonce)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pt, msg) {
		t.Fatalf("roundtrip: got %q", pt)
	}
}

func TestEncryptFreshNonce(t *testing.T) {
	e, err := NewEngine(make([]byte, KeySize))
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("same plaintext")
	ct1, _, n1, err := e.Encrypt(msg)
	if err != nil {
		t.Fatal(err)
	}
	ct2, _, n2, err := e.Encrypt(msg)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(n1, n2) {
		t.Fatal("nonce reused across encryptions")
	}
	if bytes.Equal(ct1, ct2) {
		t.Fatal("identical ciphertexts for distinct nonces")
	}
}

func TestDecryptTamperedFailsClosed(t *testing.T) {
	e, err := NewEngine(make([]byte, KeySize))
	if err != nil {
		t.Fatal(err)
	}
	ct, tag, nonce, err := e.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	for _, corrupt := range [][]byte{ct, tag, nonce} {
		if len(corrupt) == 0 {
			continue
		}
		corrupt[0] ^= 0x01
		if _, err := e.Decrypt(ct, tag, nonce); !errors.Is(err, ErrAuthFailed) {
			t.Fatalf("tampered input: got %v, want ErrAuthFailed", err)
		}
		corrupt[0] ^= 0x01
	}
	// untouched input still decrypts
	if _, err := e.Decrypt(ct, tag, nonce); err != nil {
		t.Fatal(err)
	}
}

func TestLoadOrCreateKeyPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.key")
	k1, err := LoadOrCreateKey(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(k1) != KeySize {
		t.Fatalf("generated key has %d bytes", len(k1))
	}
	// second load (another process in practice) sees identical bytes
	k2, err := LoadOrCreateKey(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatal("reloaded key differs from generated key")
	}
	e1, _ := NewEngine(k1)
	e2, _ := NewEngine(k2)
	ct, tag, nonce, err := e1.Encrypt([]byte("cross-process"))
	if err != nil {
		t.Fatal(err)
	}
	pt, err := e2.Decrypt(ct, tag, nonce)
	if err != nil || string(pt) != "cross-process" {
		t.Fatalf("peer decrypt: %q %v", pt, err)
	}
}

func TestLoadOrCreateKeyRejectsShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.key")
	if err := os.WriteFile(path, []byte("short"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrCreateKey(path); !errors.Is(err, ErrBadKeyFile) {
		t.Fatalf("short key file: got %v", err)
	}
}
