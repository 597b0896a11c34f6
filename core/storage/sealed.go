package storage

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/tony0935929660/match-platform-web-sub000/core"
)

// ErrUnsealFailed is returned when a stored value cannot be decrypted, either
// because it was tampered with or written under another key.
var ErrUnsealFailed = errors.New("failed to unseal stored value")

// SealedStorage encrypts every value with XChaCha20-Poly1305 before handing
// it to the wrapped storage. The storage key is bound as associated data so a
// value cannot be moved to another slot.
type SealedStorage struct {
	inner core.Storage
	key   []byte
}

var _ core.Storage = (*SealedStorage)(nil)

// NewSealedStorage wraps inner. key must be chacha20poly1305.KeySize bytes.
func NewSealedStorage(inner core.Storage, key []byte) (*SealedStorage, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner storage is required")
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("sealing key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}

	k := make([]byte, len(key))
	copy(k, key)
	return &SealedStorage{inner: inner, key: k}, nil
}

func (s *SealedStorage) Get(key string) (string, bool, error) {
	sealed, found, err := s.inner.Get(key)
	if err != nil || !found {
		return "", found, err
	}

	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < chacha20poly1305.NonceSizeX {
		return "", false, fmt.Errorf("%w: %s", ErrUnsealFailed, key)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", false, err
	}

	nonce, ciphertext := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("%w: %s", ErrUnsealFailed, key)
	}

	return string(plain), true, nil
}

func (s *SealedStorage) Set(key, value string) error {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return err
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Set(key, base64.RawStdEncoding.EncodeToString(sealed))
}

func (s *SealedStorage) Remove(key string) error {
	return s.inner.Remove(key)
}

func (s *SealedStorage) Close() error {
	return s.inner.Close()
}
