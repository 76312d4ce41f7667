// Package crypto implements the envelope that protects every block: a
// symmetric seal keyed by a Handle's secret, plus the single-variant
// asymmetric signing capability the original source exposes (spec.md
// section 9 design note: "the Cryptosystem enum has only rsa and
// throws on any other value").
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/xerrors"
)

// Secret is the symmetric key a Handle carries to decrypt its block.
// Two handles are equal iff their addresses and secrets are equal
// (spec.md section 3), so Secret must be comparable.
type Secret [32]byte

var ErrOpenFailed = xerrors.New("crypto: envelope authentication failed")

// NewSecret draws a fresh random secret, used when a node is first
// created and has no parent to derive a secret from.
func NewSecret() (Secret, error) {
	var s Secret
	if _, err := io.ReadFull(rand.Reader, s[:]); err != nil {
		return Secret{}, xerrors.Errorf("crypto: generating secret: %w", err)
	}
	return s, nil
}

// DeriveSecret produces a deterministic child secret from a parent
// secret and a label, gated by the tree's rotation_enabled option
// (spec.md section 6). Grounded on golang.org/x/crypto/hkdf, which the
// teacher already pulls in transitively via golang.org/x/crypto.
func DeriveSecret(parent Secret, label []byte) (Secret, error) {
	var s Secret
	kdf := hkdf.New(newSHA256, parent[:], nil, label)
	if _, err := io.ReadFull(kdf, s[:]); err != nil {
		return Secret{}, xerrors.Errorf("crypto: deriving secret: %w", err)
	}
	return s, nil
}

// Seal encrypts plaintext under secret using AES-256-GCM, returning
// nonce‖ciphertext. Sealing is deterministic only in the nonce; the
// encrypted payload is what gets hashed into the block's address
// (spec.md section 4.1).
func Seal(secret Secret, plaintext []byte) ([]byte, error) {
	aead, err := newAEAD(secret)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, xerrors.Errorf("crypto: generating nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal. A failed authentication check surfaces as
// ErrOpenFailed, which address.Decode maps to CorruptBlock.
func Open(secret Secret, ciphertext []byte) ([]byte, error) {
	aead, err := newAEAD(secret)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, ErrOpenFailed
	}
	nonce, body := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, ErrOpenFailed
	}
	return plaintext, nil
}

func newAEAD(secret Secret) (cipher.AEAD, error) {
	block, err := aes.NewCipher(secret[:])
	if err != nil {
		return nil, xerrors.Errorf("crypto: building cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
