// internal/vault/vault.go
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	appErrors "github.com/socialify/inbox-backend/internal/errors"
)

// Fixed application salt. Changing it (or the secret) is a key rotation and
// invalidates every stored credential.
var keySalt = []byte("socialify_token_salt_v1")

const keyIterations = 100000

// Credential is the structured secret stored per business account.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Vault seals and opens provider credentials with a key derived from a single
// long-lived secret. Pure transform: no storage, no caching, no logging of
// plaintext.
type Vault struct {
	aead cipher.AEAD
}

func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, errors.New("vault secret must not be empty")
	}

	key := pbkdf2.Key([]byte(secret), keySalt, keyIterations, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault cipher init: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault aead init: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt seals a credential into an opaque text blob safe for inline storage.
func (v *Vault) Encrypt(cred Credential) (string, error) {
	plaintext, err := json.Marshal(cred)
	if err != nil {
		return "", fmt.Errorf("vault encrypt: %w", err)
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("vault encrypt: %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. Any failure (corrupt blob, wrong
// key generation, tampering) is a CredentialDecryptionError, never an empty
// credential: the caller must treat it as "tenant must reconnect".
func (v *Vault) Decrypt(blob string) (Credential, error) {
	raw, err := base64.URLEncoding.DecodeString(blob)
	if err != nil {
		return Credential{}, appErrors.NewCredentialDecryptionError(err)
	}

	if len(raw) < v.aead.NonceSize() {
		return Credential{}, appErrors.NewCredentialDecryptionError(errors.New("blob too short"))
	}
	nonce, ciphertext := raw[:v.aead.NonceSize()], raw[v.aead.NonceSize():]

	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Credential{}, appErrors.NewCredentialDecryptionError(err)
	}

	var cred Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return Credential{}, appErrors.NewCredentialDecryptionError(err)
	}
	return cred, nil
}
