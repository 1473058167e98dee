package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm names a supported AEAD cipher.
type Algorithm string

const (
	// AlgorithmChaCha20 is ChaCha20-Poly1305, the default.
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
	// AlgorithmAESGCM is AES-256-GCM.
	AlgorithmAESGCM Algorithm = "aes-256-gcm"
)

// ErrCiphertextTooShort is returned when input is shorter than the nonce.
var ErrCiphertextTooShort = errors.New("encryption: ciphertext too short")

// Encryptor seals and opens payloads. Sealed output is nonce||ciphertext.
type Encryptor struct {
	aead      cipher.AEAD
	algorithm Algorithm
}

// Option configures New.
type Option func(*Encryptor)

// WithAlgorithm selects the cipher.
func WithAlgorithm(alg Algorithm) Option {
	return func(e *Encryptor) { e.algorithm = alg }
}

// New derives a 32-byte key from passphrase with SHA-256 and builds the
// selected cipher.
func New(passphrase string, opts ...Option) (*Encryptor, error) {
	if passphrase == "" {
		return nil, errors.New("encryption: empty key")
	}
	e := &Encryptor{algorithm: AlgorithmChaCha20}
	for _, opt := range opts {
		opt(e)
	}

	key := sha256.Sum256([]byte(passphrase))
	var err error
	switch e.algorithm {
	case AlgorithmChaCha20:
		e.aead, err = chacha20poly1305.New(key[:])
	case AlgorithmAESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key[:]); err == nil {
			e.aead, err = cipher.NewGCM(block)
		}
	default:
		return nil, fmt.Errorf("encryption: unknown algorithm %q", e.algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("encryption: init %s: %w", e.algorithm, err)
	}
	return e, nil
}

// Algorithm returns the cipher in use.
func (e *Encryptor) Algorithm() Algorithm { return e.algorithm }

// Seal encrypts plaintext with a fresh random nonce.
func (e *Encryptor) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("encryption: generate nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts the output of Seal.
func (e *Encryptor) Open(sealed []byte) ([]byte, error) {
	n := e.aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := e.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("encryption: open: %w", err)
	}
	return plaintext, nil
}

// Encrypt is Seal with base64 output, for text-only stores such as Redis
// string values.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	sealed, err := e.Seal([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (e *Encryptor) Decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("encryption: decode base64: %w", err)
	}
	plaintext, err := e.Open(sealed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
