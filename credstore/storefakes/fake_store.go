package storefakes

import (
	"sync"

	"github.com/wayhome/wayhome-go/credstore"
	interrors "github.com/wayhome/wayhome-go/internal/errors"
)

var _ credstore.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credential store for tests. It counts calls
// and can be primed to fail.
type FakeStore struct {
	lock  sync.Mutex
	creds *credstore.Credentials

	SaveCalls  int
	LoadCalls  int
	ClearCalls int

	SaveErr  error
	LoadErr  error
	ClearErr error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (fs *FakeStore) Save(creds *credstore.Credentials) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.SaveCalls++
	if fs.SaveErr != nil {
		return fs.SaveErr
	}
	if !creds.Valid() {
		return interrors.ErrPartialCredentials
	}
	copied := *creds
	fs.creds = &copied
	return nil
}

func (fs *FakeStore) Load() (*credstore.Credentials, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.LoadCalls++
	if fs.LoadErr != nil {
		return nil, fs.LoadErr
	}
	if fs.creds == nil {
		return nil, interrors.ErrCredentialsNotFound
	}
	copied := *fs.creds
	return &copied, nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.ClearCalls++
	if fs.ClearErr != nil {
		return fs.ClearErr
	}
	fs.creds = nil
	return nil
}

// Stored returns the currently persisted set without counting as a Load.
func (fs *FakeStore) Stored() *credstore.Credentials {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.creds == nil {
		return nil
	}
	copied := *fs.creds
	return &copied
}
