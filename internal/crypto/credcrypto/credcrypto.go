// Package credcrypto encrypts credential documents at rest with AES-256-GCM.
// The wire form is "ivBase64:cipherBase64" so the IV travels with the
// ciphertext and a stored value is self-describing.
package credcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/mkarpenko/socialvault/internal/errs"
)

// Params
const (
	KeyLen = 32 // AES-256
	ivLen  = 12 // 96-bit GCM nonce
)

// Rand returns n cryptographically secure random bytes.
func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// DeriveKey derives the data-encryption key from the master secret via
// HKDF-SHA256. The master secret comes from the external secret store and is
// never used directly as a cipher key.
func DeriveKey(master []byte, info string) ([]byte, error) {
	if len(master) == 0 {
		return nil, fmt.Errorf("empty master secret")
	}
	r := hkdf.New(sha256.New, master, nil, []byte(info))
	key := make([]byte, KeyLen)
	if _, err := r.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext under key with a fresh random IV per call.
// IV reuse under the same key breaks GCM confidentiality, so the IV is always
// drawn from crypto/rand and never derived from the payload.
func Encrypt(key, plaintext []byte) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}
	iv, err := Rand(ivLen)
	if err != nil {
		return "", err
	}
	ct := aead.Seal(nil, iv, plaintext, nil)
	return base64.StdEncoding.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt opens a token produced by Encrypt. Malformed tokens, wrong keys and
// tampered ciphertext all surface as errs.ErrDecryption.
func Decrypt(key []byte, token string) ([]byte, error) {
	ivPart, ctPart, ok := strings.Cut(token, ":")
	if !ok {
		return nil, fmt.Errorf("%w: malformed token", errs.ErrDecryption)
	}
	iv, err := base64.StdEncoding.DecodeString(ivPart)
	if err != nil {
		return nil, fmt.Errorf("%w: bad iv encoding", errs.ErrDecryption)
	}
	ct, err := base64.StdEncoding.DecodeString(ctPart)
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext encoding", errs.ErrDecryption)
	}
	if len(iv) != ivLen {
		return nil, fmt.Errorf("%w: bad iv length", errs.ErrDecryption)
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, iv, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDecryption, err)
	}
	return pt, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
