package credstore

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	interrors "github.com/wayhome/wayhome-go/internal/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLength = 16

	// scrypt work parameters (interactive profile)
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// EncryptedStore persists the credential set encrypted at rest with
// XChaCha20-Poly1305, the key derived from a passphrase via scrypt. The
// salt and nonce are stored alongside the ciphertext; a fresh pair is
// generated on every save.
type EncryptedStore struct {
	path       string
	passphrase []byte
}

var _ Store = (*EncryptedStore)(nil)

func NewEncryptedStore(path, passphrase string) *EncryptedStore {
	return &EncryptedStore{path: path, passphrase: []byte(passphrase)}
}

func (es *EncryptedStore) Save(creds *Credentials) error {
	if !creds.Valid() {
		return interrors.ErrPartialCredentials
	}

	plaintext, err := json.Marshal(storedCredentials{
		AccessToken:    creds.AccessToken,
		RefreshToken:   creds.RefreshToken,
		TokenExpiresAt: strconv.FormatInt(creds.ExpiresAt.Unix(), 10),
		DeviceID:       creds.DeviceID,
		User:           creds.User,
	})
	if err != nil {
		return interrors.Wrapf(err, "[EncryptedStore.Save] marshal")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return interrors.Wrapf(err, "[EncryptedStore.Save] rand salt")
	}

	aead, err := es.aead(salt)
	if err != nil {
		return interrors.Wrapf(err, "[EncryptedStore.Save] aead")
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return interrors.Wrapf(err, "[EncryptedStore.Save] rand nonce")
	}

	// Layout: salt || nonce || ciphertext
	blob := append(append(salt, nonce...), aead.Seal(nil, nonce, plaintext, nil)...)

	if err := os.MkdirAll(filepath.Dir(es.path), 0o700); err != nil {
		return interrors.Wrapf(err, "[EncryptedStore.Save] mkdir")
	}
	tmp := es.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return interrors.Wrapf(err, "[EncryptedStore.Save] write temp")
	}
	if err := os.Rename(tmp, es.path); err != nil {
		return interrors.Wrapf(err, "[EncryptedStore.Save] rename")
	}
	return nil
}

func (es *EncryptedStore) Load() (*Credentials, error) {
	blob, err := os.ReadFile(es.path)
	if os.IsNotExist(err) {
		return nil, interrors.ErrCredentialsNotFound
	}
	if err != nil {
		return nil, interrors.Wrapf(err, "[EncryptedStore.Load] read")
	}

	if len(blob) < saltLength+chacha20poly1305.NonceSizeX {
		return nil, interrors.ErrStoreCorrupt
	}
	salt := blob[:saltLength]
	nonce := blob[saltLength : saltLength+chacha20poly1305.NonceSizeX]
	ciphertext := blob[saltLength+chacha20poly1305.NonceSizeX:]

	aead, err := es.aead(salt)
	if err != nil {
		return nil, interrors.Wrapf(err, "[EncryptedStore.Load] aead")
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interrors.ErrDecrypt, err)
	}
	return decodeStored(plaintext)
}

func (es *EncryptedStore) Clear() error {
	if err := os.Remove(es.path); err != nil && !os.IsNotExist(err) {
		return interrors.Wrapf(err, "[EncryptedStore.Clear] remove")
	}
	return nil
}

func (es *EncryptedStore) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(es.passphrase, salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	return chacha20poly1305.NewX(key)
}
