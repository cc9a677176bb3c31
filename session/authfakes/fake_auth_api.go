package authfakes

import (
	"context"
	"sync"

	interrors "github.com/wayhome/wayhome-go/internal/errors"
	"github.com/wayhome/wayhome-go/session"
	"github.com/wayhome/wayhome-go/users"
)

var _ session.AuthAPI = (*FakeAuthAPI)(nil)

// FakeAuthAPI is an in-memory authentication boundary for tests. It checks
// a single primed email/password pair, rotates tokens on refresh, and
// counts every boundary call so tests can assert exact call totals.
type FakeAuthAPI struct {
	lock sync.Mutex

	Email    string
	Password string
	User     *users.User

	// Tokens handed out by the next Login/Refresh.
	NextAccessToken  string
	NextRefreshToken string
	ExpiresIn        int

	// Primed failures
	LoginErr   error
	RefreshErr error
	MeErr      error
	LogoutErr  error

	// MeUnauthorizedTimes makes Me return ErrUnauthorized for that many
	// calls before succeeding.
	MeUnauthorizedTimes int

	// RefreshBarrier, when set, blocks Refresh until the channel is closed.
	// Lets tests hold several refresh callers in flight at once.
	RefreshBarrier chan struct{}

	LoginCalls   int
	RefreshCalls int
	MeCalls      int
	LogoutCalls  int

	// LastRefreshToken records the refresh token presented to Refresh.
	LastRefreshToken string
}

func NewFakeAuthAPI() *FakeAuthAPI {
	return &FakeAuthAPI{
		Email:            "agent@wayhome.example",
		Password:         "password123",
		NextAccessToken:  "access-1",
		NextRefreshToken: "refresh-1",
		ExpiresIn:        3600,
		User: &users.User{
			ID:        "user-1",
			Email:     "agent@wayhome.example",
			FirstName: "Jane",
			LastName:  "Doe",
			Role:      users.RoleAgent,
			OfficeID:  "office-1",
		},
	}
}

func (f *FakeAuthAPI) Login(_ context.Context, email, password string) (*session.LoginResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.LoginCalls++
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	if email != f.Email || password != f.Password {
		return nil, interrors.ErrInvalidCredentials
	}

	refreshToken := f.NextRefreshToken
	user := *f.User
	return &session.LoginResult{
		User: &user,
		Tokens: session.TokenGrant{
			AccessToken:  f.NextAccessToken,
			RefreshToken: &refreshToken,
			ExpiresIn:    f.ExpiresIn,
		},
	}, nil
}

func (f *FakeAuthAPI) Refresh(_ context.Context, refreshToken string) (*session.TokenGrant, error) {
	if f.RefreshBarrier != nil {
		<-f.RefreshBarrier
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	f.RefreshCalls++
	f.LastRefreshToken = refreshToken
	if f.RefreshErr != nil {
		return nil, f.RefreshErr
	}

	// Rotate both tokens, the way the backend does.
	f.NextAccessToken = f.NextAccessToken + "r"
	f.NextRefreshToken = f.NextRefreshToken + "r"
	rotated := f.NextRefreshToken
	return &session.TokenGrant{
		AccessToken:  f.NextAccessToken,
		RefreshToken: &rotated,
		ExpiresIn:    f.ExpiresIn,
	}, nil
}

func (f *FakeAuthAPI) Me(_ context.Context, _ string) (*users.User, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.MeCalls++
	if f.MeUnauthorizedTimes > 0 {
		f.MeUnauthorizedTimes--
		return nil, interrors.ErrUnauthorized
	}
	if f.MeErr != nil {
		return nil, f.MeErr
	}
	user := *f.User
	return &user, nil
}

func (f *FakeAuthAPI) Logout(_ context.Context, _ string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.LogoutCalls++
	return f.LogoutErr
}

// Calls returns a snapshot of the boundary call counters.
func (f *FakeAuthAPI) Calls() (login, refresh, me, logout int) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.LoginCalls, f.RefreshCalls, f.MeCalls, f.LogoutCalls
}
