package tokencrypt

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecryptionFailed covers every way a ciphertext can be bad: truncated,
// not base64, or failing AEAD authentication. Callers get no finer detail.
var ErrDecryptionFailed = errors.New("decryption failed")

// Codec encrypts raw share tokens before they are embedded into link
// payloads. It is stateless after construction and safe for concurrent use.
type Codec struct {
	key [chacha20poly1305.KeySize]byte
}

func New(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	c := &Codec{key: sha256.Sum256([]byte(secret))}
	return c, nil
}

func (c *Codec) Encrypt(raw string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key[:])
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(raw)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(raw), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *Codec) Decrypt(ciphertext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key[:])
	if err != nil {
		return "", err
	}
	sealed, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	if len(sealed) < aead.NonceSize() {
		return "", ErrDecryptionFailed
	}
	nonce, body := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	raw, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(raw), nil
}
