package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// Cipher encrypts sensitive text at rest with a key derived from a static secret.
type Cipher struct {
	key [32]byte
}

func NewCipher(secret string) *Cipher {
	return &Cipher{key: sha256.Sum256([]byte(secret))}
}

// Encrypt seals text and returns it base64 encoded. Empty text is returned as is.
func (c *Cipher) Encrypt(text string) (string, error) {
	if text == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", errors.Wrap(err, "generating nonce")
	}
	sealed := secretbox.Seal(nonce[:], []byte(text), &nonce, &c.key)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens text sealed by Encrypt.
// Values that cannot be decoded or opened are returned unchanged.
func (c *Cipher) Decrypt(text string) string {
	if text == "" {
		return ""
	}
	raw, err := base64.URLEncoding.DecodeString(text)
	if err != nil || len(raw) <= nonceSize {
		return text
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	opened, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &c.key)
	if !ok {
		return text
	}
	return string(opened)
}
