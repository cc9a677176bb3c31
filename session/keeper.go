package session

import (
	"context"
	"time"
)

// RunKeeper periodically refreshes the access token when it is inside the
// lookahead window, independent of any in-flight request. It blocks until
// ctx is cancelled; run it on its own goroutine for the lifetime of the
// session owner.
func (m *Manager) RunKeeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.keeperTick(ctx)
		}
	}
}

func (m *Manager) keeperTick(ctx context.Context) {
	creds := m.snapshot()
	if !creds.Valid() {
		return
	}
	if creds.ExpiresWithin(m.nowTime(), m.lookahead) {
		m.log.Debug().Time("expires_at", creds.ExpiresAt).Msg("keeper refreshing expiring token")
		m.Refresh(ctx)
	}
}
