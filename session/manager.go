package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/wayhome/wayhome-go/credstore"
	interrors "github.com/wayhome/wayhome-go/internal/errors"
	"github.com/wayhome/wayhome-go/internal/utils"
	"github.com/wayhome/wayhome-go/users"
)

const (
	// defaultLookahead is the margin before expiry during which the access
	// token is treated as expiring soon and proactively refreshed.
	defaultLookahead = 5 * time.Minute

	// defaultExpiry applies when the server omits expires_in and the access
	// token carries no usable exp claim.
	defaultExpiry = 1 * time.Hour

	serverLogoutTimeout = 5 * time.Second
)

// Manager owns the single live session: the current identity and credential
// set. It is the only component that reads or writes the credential store;
// everything else goes through its operations. Public operations never
// propagate failures as panics or errors - callers receive booleans or
// zero values.
type Manager struct {
	store         credstore.Store
	api           AuthAPI
	nowTime       func() time.Time // injectable for testing
	lookahead     time.Duration
	defaultExpiry time.Duration
	log           zerolog.Logger

	lock  sync.RWMutex
	creds *credstore.Credentials

	// Concurrent Refresh calls share one flight; callers of the coalesced
	// flight all receive the same outcome.
	refreshGroup singleflight.Group

	subLock     sync.RWMutex
	subscribers []func(Event)
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithLookahead overrides the proactive-refresh window.
func WithLookahead(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.lookahead = d
	}
}

// WithDefaultExpiry overrides the fallback access-token lifetime.
func WithDefaultExpiry(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.defaultExpiry = d
	}
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager initializes a Manager with its required dependencies.
// Optional configuration can be provided via options (e.g., WithNowTime
// for testing).
func NewManager(store credstore.Store, api AuthAPI, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, interrors.Wrapf(interrors.ErrInternal, "[NewManager] store is required")
	}
	if api == nil {
		return nil, interrors.Wrapf(interrors.ErrInternal, "[NewManager] auth api is required")
	}

	manager := &Manager{
		store:         store,
		api:           api,
		nowTime:       time.Now,
		lookahead:     defaultLookahead,
		defaultExpiry: defaultExpiry,
		log:           zerolog.Nop(),
	}

	for _, opt := range options {
		opt(manager)
	}

	return manager, nil
}

// Login authenticates with the boundary and, on success, replaces the live
// session and persists the credential set. On any failure it returns false
// and leaves a prior session untouched.
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	result, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.log.Debug().Err(err).Str("email", email).Msg("login failed")
		return false
	}
	refreshToken := utils.Value(result.Tokens.RefreshToken)
	if result.Tokens.AccessToken == "" || refreshToken == "" {
		m.log.Debug().Str("email", email).Msg("login response missing tokens")
		return false
	}

	m.lock.Lock()
	deviceID := ""
	if m.creds != nil {
		deviceID = m.creds.DeviceID
	}
	if deviceID == "" {
		deviceID = uuid.New().String()
	}
	creds := &credstore.Credentials{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    m.expiryFrom(result.Tokens),
		DeviceID:     deviceID,
		User:         result.User,
	}
	m.creds = creds
	copied := *creds
	m.lock.Unlock()

	if err := m.store.Save(&copied); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist credentials")
	}
	m.notify(EventLoggedIn)
	return true
}

// Logout clears the persisted credential set and the in-memory session
// before returning. Server-side invalidation is best-effort and runs in
// the background; its failure never blocks local logout. Idempotent.
func (m *Manager) Logout() {
	m.lock.Lock()
	accessToken := ""
	if m.creds != nil {
		accessToken = m.creds.AccessToken
	}
	m.creds = nil
	m.lock.Unlock()

	if err := m.store.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear credential store")
	}

	if accessToken != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), serverLogoutTimeout)
			defer cancel()
			if err := m.api.Logout(ctx, accessToken); err != nil {
				m.log.Debug().Err(err).Msg("server-side logout failed")
			}
		}()
	}

	m.notify(EventLoggedOut)
}

// Refresh exchanges the stored refresh token for a new access token.
// Returns false immediately when no refresh token exists. Any boundary
// failure logs the session out as a side effect and returns false.
// Concurrent calls are coalesced into a single boundary call.
func (m *Manager) Refresh(ctx context.Context) bool {
	v, _, _ := m.refreshGroup.Do("refresh", func() (interface{}, error) {
		return m.refresh(ctx), nil
	})
	ok, _ := v.(bool)
	return ok
}

func (m *Manager) refresh(ctx context.Context) bool {
	refreshToken := m.currentRefreshToken()
	if refreshToken == "" {
		return false
	}

	grant, err := m.api.Refresh(ctx, refreshToken)
	if err != nil || grant == nil || grant.AccessToken == "" {
		m.log.Debug().Err(err).Msg("token refresh failed, logging out")
		m.Logout()
		return false
	}

	m.lock.Lock()
	if m.creds == nil {
		// A logout landed while the refresh call was in flight; the grant
		// must not resurrect the session.
		m.lock.Unlock()
		return false
	}
	// Replace the whole set rather than mutating in place; readers holding
	// an earlier snapshot never observe a half-written set.
	updated := *m.creds
	updated.AccessToken = grant.AccessToken
	updated.ExpiresAt = m.expiryFrom(*grant)
	if newToken := utils.Value(grant.RefreshToken); newToken != "" {
		updated.RefreshToken = newToken
	}
	m.creds = &updated
	copied := updated
	m.lock.Unlock()

	if err := m.store.Save(&copied); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist refreshed credentials")
	}
	m.notify(EventTokenRefreshed)
	return true
}

// GetValidToken returns an access token good for at least the lookahead
// window, refreshing first when the current one is expiring. Empty string
// means no session (or the refresh failed and the session was cleared).
func (m *Manager) GetValidToken(ctx context.Context) string {
	creds := m.currentOrRestored()
	if !creds.Valid() {
		return ""
	}
	if creds.ExpiresWithin(m.nowTime(), m.lookahead) {
		if !m.Refresh(ctx) {
			return ""
		}
	}

	m.lock.RLock()
	defer m.lock.RUnlock()
	if !m.creds.Valid() {
		return ""
	}
	return m.creds.AccessToken
}

// CheckSession restores the session from durable storage and validates it
// against the boundary. Intended for process start and app focus-regain.
// Safe to re-enter; a later completion simply overwrites an earlier one.
func (m *Manager) CheckSession(ctx context.Context) {
	stored, err := m.store.Load()
	if err != nil || !stored.Valid() {
		m.lock.Lock()
		m.creds = nil
		m.lock.Unlock()
		return
	}

	m.lock.Lock()
	m.creds = stored
	m.lock.Unlock()

	token := m.GetValidToken(ctx)
	if token == "" {
		return // refresh failed, session already cleared
	}

	user, err := m.api.Me(ctx, token)
	if interrors.Is(err, interrors.ErrUnauthorized) {
		if !m.Refresh(ctx) {
			return
		}
		user, err = m.api.Me(ctx, m.accessToken())
	}
	if err != nil {
		m.log.Debug().Err(err).Msg("session validation failed")
		m.Logout()
		return
	}

	m.setUser(user)
}

// IsAuthenticated reports whether a valid credential set is live in memory.
func (m *Manager) IsAuthenticated() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.creds.Valid()
}

// CurrentUser returns a copy of the identity record, or nil without a session.
func (m *Manager) CurrentUser() *users.User {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.creds == nil || m.creds.User == nil {
		return nil
	}
	copied := *m.creds.User
	return &copied
}

// TokenExpiry returns the current access token's absolute expiry, zero
// without a session.
func (m *Manager) TokenExpiry() time.Time {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.creds == nil {
		return time.Time{}
	}
	return m.creds.ExpiresAt
}

func (m *Manager) setUser(user *users.User) {
	m.lock.Lock()
	if m.creds == nil {
		m.lock.Unlock()
		return
	}
	updated := *m.creds
	updated.User = user
	m.creds = &updated
	copied := updated
	m.lock.Unlock()

	if err := m.store.Save(&copied); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist user record")
	}
	m.notify(EventUserUpdated)
}

func (m *Manager) accessToken() string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.creds == nil {
		return ""
	}
	return m.creds.AccessToken
}

func (m *Manager) currentRefreshToken() string {
	if creds := m.currentOrRestored(); creds.Valid() {
		return creds.RefreshToken
	}
	return ""
}

// snapshot returns a value copy of the live credential set taken under
// the lock, or nil without a session. Callers read the copy freely while
// writers replace m.creds.
func (m *Manager) snapshot() *credstore.Credentials {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.creds == nil {
		return nil
	}
	copied := *m.creds
	return &copied
}

// currentOrRestored returns a snapshot of the in-memory credential set,
// restoring it from durable storage when the process has not touched it yet.
func (m *Manager) currentOrRestored() *credstore.Credentials {
	if creds := m.snapshot(); creds != nil {
		return creds
	}

	stored, err := m.store.Load()
	if err != nil || !stored.Valid() {
		return nil
	}

	m.lock.Lock()
	if m.creds == nil {
		m.creds = stored
	}
	copied := *m.creds
	m.lock.Unlock()
	return &copied
}

// expiryFrom derives the absolute expiry of a granted access token. A JWT
// exp claim is authoritative; expires_in is a hint; without either the
// default lifetime applies.
func (m *Manager) expiryFrom(grant TokenGrant) time.Time {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(grant.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if grant.ExpiresIn > 0 {
		return m.nowTime().Add(time.Duration(grant.ExpiresIn) * time.Second)
	}
	return m.nowTime().Add(m.defaultExpiry)
}
