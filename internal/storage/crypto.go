package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

// keySalt is fixed so the same passphrase always yields the same key and
// existing history stays readable across restarts.
var keySalt = []byte("copywriter-bot/history/v1")

// DeriveKey stretches a passphrase into a 32-byte AES-256 key with scrypt.
func DeriveKey(passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase is empty")
	}
	key, err := scrypt.Key([]byte(passphrase), keySalt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("derive history key: %w", err)
	}
	return key, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("history cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with AES-GCM under key (16, 24 or 32 bytes) and
// returns base64(nonce || ciphertext || tag).
func Encrypt(plaintext []byte, key []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("history nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(aead.Seal(nonce, nonce, plaintext, nil)), nil
}

// Decrypt reverses Encrypt. A wrong key or tampered payload is an error.
func Decrypt(encoded string, key []byte) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("history payload is not base64: %w", err)
	}
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	n := aead.NonceSize()
	if len(sealed) < n+aead.Overhead() {
		return nil, errors.New("history payload is truncated")
	}
	plaintext, err := aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("open history payload: %w", err)
	}
	return plaintext, nil
}
