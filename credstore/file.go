package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	interrors "github.com/wayhome/wayhome-go/internal/errors"
	"github.com/wayhome/wayhome-go/users"
)

// storedCredentials is the on-disk shape. The expiry is a stringified
// unix timestamp so the format matches what the backend's web client
// writes to its own key-value storage.
type storedCredentials struct {
	AccessToken    string      `json:"access_token"`
	RefreshToken   string      `json:"refresh_token"`
	TokenExpiresAt string      `json:"token_expires_at"`
	DeviceID       string      `json:"device_id,omitempty"`
	User           *users.User `json:"user,omitempty"`
}

// FileStore persists the credential set as a single JSON file. Saves go
// through a temp file and rename so a crash mid-write leaves either the
// old set or the new one, never a torn set.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (fs *FileStore) Save(creds *Credentials) error {
	if !creds.Valid() {
		return interrors.ErrPartialCredentials
	}

	data, err := json.MarshalIndent(storedCredentials{
		AccessToken:    creds.AccessToken,
		RefreshToken:   creds.RefreshToken,
		TokenExpiresAt: strconv.FormatInt(creds.ExpiresAt.Unix(), 10),
		DeviceID:       creds.DeviceID,
		User:           creds.User,
	}, "", "  ")
	if err != nil {
		return interrors.Wrapf(err, "[FileStore.Save] marshal")
	}

	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return interrors.Wrapf(err, "[FileStore.Save] mkdir")
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return interrors.Wrapf(err, "[FileStore.Save] write temp")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return interrors.Wrapf(err, "[FileStore.Save] rename")
	}
	return nil
}

func (fs *FileStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return nil, interrors.ErrCredentialsNotFound
	}
	if err != nil {
		return nil, interrors.Wrapf(err, "[FileStore.Load] read")
	}
	return decodeStored(data)
}

func (fs *FileStore) Clear() error {
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return interrors.Wrapf(err, "[FileStore.Clear] remove")
	}
	return nil
}

func decodeStored(data []byte) (*Credentials, error) {
	var stored storedCredentials
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", interrors.ErrStoreCorrupt, err)
	}
	if stored.AccessToken == "" || stored.RefreshToken == "" {
		return nil, interrors.ErrPartialCredentials
	}

	var expiresAt time.Time
	if stored.TokenExpiresAt != "" {
		unix, err := strconv.ParseInt(stored.TokenExpiresAt, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad expiry %q", interrors.ErrStoreCorrupt, stored.TokenExpiresAt)
		}
		expiresAt = time.Unix(unix, 0)
	}

	return &Credentials{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		ExpiresAt:    expiresAt,
		DeviceID:     stored.DeviceID,
		User:         stored.User,
	}, nil
}
