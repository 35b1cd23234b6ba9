// Package crypto implements the at-rest encryption of file payloads.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"vaultdrive/internal/domain"
)

const keySize = 32 // AES-256

// Codec encrypts and decrypts file payloads with AES-256-GCM. Every blob is
// self-describing: the random nonce is prepended to the sealed body, so the
// stored layout is nonce || ciphertext.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds the codec from a hex-encoded 256-bit key. A missing or
// malformed key is a startup error: the process must not come up with
// encryption silently disabled.
func NewCodec(keyHex string) (*Codec, error) {
	if keyHex == "" {
		return nil, fmt.Errorf("encryption key is not configured")
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes (%d hex characters), got %d bytes",
			keySize, keySize*2, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce. Two calls with the same
// input produce different output.
func (c *Codec) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt splits the nonce off the front of the blob and opens the rest.
// Truncated, tampered or wrong-key input fails with ErrDecryptionFailed;
// callers must treat that as data corruption, not as garbage to pass on.
func (c *Codec) Decrypt(blob []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(blob) < ns {
		return nil, fmt.Errorf("%w: blob shorter than nonce (%d bytes)", domain.ErrDecryptionFailed, len(blob))
	}

	nonce, body := blob[:ns], blob[ns:]
	plaintext, err := c.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
	}

	return plaintext, nil
}

// Overhead is the number of bytes encryption adds to a payload.
func (c *Codec) Overhead() int {
	return c.aead.NonceSize() + c.aead.Overhead()
}

// GenerateKeyHex returns a fresh random key in the format NewCodec expects,
// for operators provisioning a new deployment.
func GenerateKeyHex() (string, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
