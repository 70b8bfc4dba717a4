package milesight

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
)

// Cipher encrypts passwords the way the gateway login form does:
// AES-CBC with a fixed key and IV, PKCS#7 padding, standard base64.
type Cipher struct {
	block cipher.Block
	iv    []byte
}

// NewCipher validates key and iv and returns a Cipher using them.
// The key must be 16, 24 or 32 bytes long and the IV 16 bytes.
func NewCipher(key, iv []byte) (*Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("key length %d: %w", len(key), ErrInvalidKeyMaterial)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("iv length %d: %w", len(iv), ErrInvalidKeyMaterial)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cannot create cipher: %w", err)
	}

	return &Cipher{
		block: block,
		iv:    bytes.Clone(iv),
	}, nil
}

// Encrypt returns the base64 encoded ciphertext of password.
// The result is deterministic for a given key, IV and password.
func (c *Cipher) Encrypt(password string) (string, error) {
	padded := pad([]byte(password), aes.BlockSize)

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// EncryptPassword is a shortcut for [NewCipher] followed by [Cipher.Encrypt].
func EncryptPassword(password string, key, iv []byte) (string, error) {
	c, err := NewCipher(key, iv)
	if err != nil {
		return "", err
	}

	return c.Encrypt(password)
}

// pad applies PKCS#7 padding. Aligned input gets a full extra block.
func pad(plaintext []byte, blockSize int) []byte {
	n := blockSize - len(plaintext)%blockSize

	out := make([]byte, len(plaintext)+n)
	copy(out, plaintext)
	for i := len(plaintext); i < len(out); i++ {
		out[i] = byte(n)
	}

	return out
}
