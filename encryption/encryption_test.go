package encryption

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncryptor_RoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmChaCha20, AlgorithmAESGCM} {
		t.Run(string(alg), func(t *testing.T) {
			enc, err := New("mirror-secret", WithAlgorithm(alg))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			sealed, err := enc.Seal([]byte("hello world"))
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}
			if bytes.Contains(sealed, []byte("hello world")) {
				t.Fatal("sealed payload leaks plaintext")
			}
			plain, err := enc.Open(sealed)
			if err != nil || string(plain) != "hello world" {
				t.Fatalf("Open: %q %v", plain, err)
			}
		})
	}
}

func TestEncryptor_NonceIsFresh(t *testing.T) {
	enc, _ := New("k")
	a, _ := enc.Encrypt("same")
	b, _ := enc.Encrypt("same")
	if a == b {
		t.Error("two seals of the same text must differ")
	}
	if got, err := enc.Decrypt(a); err != nil || got != "same" {
		t.Errorf("Decrypt: %q %v", got, err)
	}
}

func TestEncryptor_WrongKey(t *testing.T) {
	a, _ := New("key-a")
	b, _ := New("key-b")
	sealed, _ := a.Seal([]byte("secret"))
	if _, err := b.Open(sealed); err == nil {
		t.Fatal("expected authentication failure with the wrong key")
	}
}

func TestEncryptor_Errors(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("empty key should be rejected")
	}
	if _, err := New("k", WithAlgorithm("rot13")); err == nil {
		t.Error("unknown algorithm should be rejected")
	}
	enc, _ := New("k")
	if _, err := enc.Open([]byte{1, 2}); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("expected ErrCiphertextTooShort, got %v", err)
	}
	if _, err := enc.Decrypt("%%%"); err == nil {
		t.Error("invalid base64 should fail")
	}
}
