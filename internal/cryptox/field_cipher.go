// Package cryptox implements field-level authenticated encryption for
// protected health information. Individual string fields are encrypted with
// AES-256-GCM and stored as a hex-encoded (ciphertext, iv, auth tag) triple,
// with the authenticated data bound to a per-field context so a ciphertext
// cannot be replayed into another record or column.
package cryptox

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/bloomwell/telehealth/internal/common"
	"github.com/bloomwell/telehealth/internal/logging"
)

const gcmTagSize = 16

var (
	// ErrInvalidKey indicates the configured encryption key is missing or is
	// not 64 hex characters (32 bytes). This is a startup-class failure.
	ErrInvalidKey = errors.New("encryption key must be 64 hex characters (32 bytes)")
)

// EncryptedField is the persisted form of an encrypted value. All three
// parts are hex-encoded. A zero EncryptedField means "no data", not an
// encryption of the empty string.
type EncryptedField struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	AuthTag    string `json:"auth_tag"`
}

// IsEmpty reports whether the field holds no data.
func (f EncryptedField) IsEmpty() bool {
	return f.Ciphertext == "" && f.IV == "" && f.AuthTag == ""
}

// FieldContext builds the associated-data string binding a ciphertext to a
// record and column. Stable across encrypt and decrypt.
func FieldContext(recordID, fieldName string) string {
	return recordID + "/" + fieldName
}

// FieldCipher encrypts and decrypts individual fields with AES-256-GCM.
type FieldCipher struct {
	aead   cipher.AEAD
	logger logging.Logger
}

// NewFieldCipher validates the hex key and constructs the cipher. The key
// must decode to exactly 32 bytes; anything else returns ErrInvalidKey so
// the composition root can fail fast before serving traffic.
func NewFieldCipher(hexKey string, logger logging.Logger) (*FieldCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidKey
	}
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}
	return &FieldCipher{aead: aead, logger: logger}, nil
}

// Encrypt seals plaintext under the given field context. An empty plaintext
// short-circuits to the empty triple and is never passed to the cipher;
// callers must treat the empty triple as "no data".
func (c *FieldCipher) Encrypt(fieldCtx, plaintext string) (EncryptedField, error) {
	if plaintext == "" {
		return EncryptedField{}, nil
	}

	iv := common.GenerateRandByteArray(c.aead.NonceSize())
	sealed := c.aead.Seal(nil, iv, []byte(plaintext), []byte(fieldCtx))
	ct, tag := sealed[:len(sealed)-gcmTagSize], sealed[len(sealed)-gcmTagSize:]

	return EncryptedField{
		Ciphertext: hex.EncodeToString(ct),
		IV:         hex.EncodeToString(iv),
		AuthTag:    hex.EncodeToString(tag),
	}, nil
}

// Decrypt opens an encrypted field. Failure is fail-closed and quiet toward
// the caller: any malformed hex, wrong context, or auth-tag mismatch yields
// the empty string with an error logged, never a panic and never wrong
// plaintext. The empty triple decrypts to "".
func (c *FieldCipher) Decrypt(fieldCtx string, f EncryptedField) string {
	if f.IsEmpty() {
		return ""
	}

	ct, err := hex.DecodeString(f.Ciphertext)
	if err != nil {
		c.logDecryptFailure(fieldCtx, "malformed ciphertext hex")
		return ""
	}
	iv, err := hex.DecodeString(f.IV)
	if err != nil || len(iv) != c.aead.NonceSize() {
		c.logDecryptFailure(fieldCtx, "malformed iv")
		return ""
	}
	tag, err := hex.DecodeString(f.AuthTag)
	if err != nil {
		c.logDecryptFailure(fieldCtx, "malformed auth tag hex")
		return ""
	}

	plaintext, err := c.aead.Open(nil, iv, append(ct, tag...), []byte(fieldCtx))
	if err != nil {
		c.logDecryptFailure(fieldCtx, "authentication failed")
		return ""
	}
	return string(plaintext)
}

func (c *FieldCipher) logDecryptFailure(fieldCtx, reason string) {
	if c.logger == nil {
		return
	}
	c.logger.Error(context.Background(), "field decryption failed", "field", fieldCtx, "reason", reason)
}
