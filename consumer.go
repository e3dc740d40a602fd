package compassAuth

// Snapshot is what a presentation layer renders from. It is a copy; mutating
// it has no effect on the Manager.
type Snapshot struct {
	State       State
	CurrentUser *PublicUser
	IsBusy      bool
	LastError   string

	IsAuthenticated bool
	IsAdmin         bool
	IsUser          bool
}

type subscriber struct {
	id uint64
	fn func(Snapshot)
}

// Snapshot returns the current consumer view.
func (m *Manager) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{
		State:     m.state,
		IsBusy:    m.busy > 0,
		LastError: m.lastErr,
	}
	if m.session != nil {
		u := m.session.User
		s.CurrentUser = &u
		s.IsAuthenticated = true
		s.IsAdmin = u.Role == RoleAdmin
		s.IsUser = u.Role == RoleUser
	}
	return s
}

// Subscribe registers fn to be called with a fresh Snapshot after every state,
// busy, or error change. fn runs on the goroutine that caused the change and
// must not block. The returned func removes the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	if m == nil || fn == nil {
		return func() {}
	}
	m.mu.Lock()
	m.nextSub++
	id := m.nextSub
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) notify() {
	m.mu.Lock()
	if len(m.subs) == 0 {
		m.mu.Unlock()
		return
	}
	snap := m.snapshotLocked()
	subs := make([]subscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, s := range subs {
		s.fn(snap)
	}
}
