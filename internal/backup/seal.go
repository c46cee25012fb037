package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/nhle/deadline-tracker/internal/credential"
)

// archiveKeyName is the keyring entry holding the snapshot sealing key.
const archiveKeyName = "backup-archive-key"

// keySize is the AES-256 key length in bytes.
const keySize = 32

// ArchiveKey returns the sealing key from the system keyring, generating
// and storing a fresh one on first use.
func ArchiveKey() ([]byte, error) {
	encoded, err := credential.Get(archiveKeyName)
	switch {
	case err == nil:
		key, decodeErr := base64.StdEncoding.DecodeString(encoded)
		if decodeErr != nil || len(key) != keySize {
			return nil, fmt.Errorf("stored archive key is corrupt")
		}
		return key, nil
	case !credential.IsNotFound(err):
		return nil, err
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating archive key: %w", err)
	}
	if err := credential.Set(archiveKeyName, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}

// Seal encrypts plaintext with AES-256-GCM, prepending the nonce.
func Seal(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts data produced by Seal.
func Open(sealed, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("sealed snapshot is truncated")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("unsealing snapshot: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("archive key must be %d bytes, got %d", keySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("initializing GCM: %w", err)
	}
	return gcm, nil
}
