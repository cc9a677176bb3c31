package session

// Event identifies a session state transition. Subscribers replace the
// ad-hoc cross-component notifications the web client used for
// "token updated" style signalling.
type Event string

const (
	EventLoggedIn       Event = "logged_in"
	EventLoggedOut      Event = "logged_out"
	EventTokenRefreshed Event = "token_refreshed"
	EventUserUpdated    Event = "user_updated"
)

// Subscribe registers a callback invoked on every session event. Callbacks
// run synchronously on the goroutine performing the transition and must not
// call back into the Manager's mutating operations.
func (m *Manager) Subscribe(fn func(Event)) {
	m.subLock.Lock()
	defer m.subLock.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

func (m *Manager) notify(event Event) {
	m.subLock.RLock()
	subscribers := make([]func(Event), len(m.subscribers))
	copy(subscribers, m.subscribers)
	m.subLock.RUnlock()

	for _, fn := range subscribers {
		fn(event)
	}
}
