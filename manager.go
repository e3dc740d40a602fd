package compassAuth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/careercompass/compassAuth/internal"
	"github.com/careercompass/compassAuth/store"
	"github.com/careercompass/compassAuth/token"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Manager owns the in-memory session and orchestrates every operation that
// changes it. Build one per application root with [Builder.Build] and pass it
// to consumers by reference.
//
// Methods are safe for concurrent use with respect to memory, but operations
// are not serialized against each other: when two are in flight the last
// store write wins.
type Manager struct {
	cfg      Config
	store    *store.Store
	codec    *token.Codec
	ids      *internal.IDGenerator
	secrets  SecretMatcher
	reserved *ReservedCredential
	validate *validator.Validate
	logger   *slog.Logger
	audit    *auditTrail
	metrics  *Metrics
	now      func() time.Time

	restoreOnce sync.Once

	mu      sync.Mutex
	state   State
	session *store.SessionRecord
	busy    int
	lastErr string
	subs    []subscriber
	nextSub uint64
}

func (m *Manager) ready() error {
	if m == nil || m.store == nil || m.codec == nil {
		return ErrManagerNotReady
	}
	return nil
}

// Restore reloads the persisted session. It runs once per Manager; later
// calls return immediately. Restore never fails: a missing, half-written,
// expired, or unreadable session leaves the Manager in StateAnonymous.
func (m *Manager) Restore(ctx context.Context) {
	if m.ready() != nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	m.restoreOnce.Do(func() {
		m.restore(ctx)
	})
}

func (m *Manager) restore(ctx context.Context) {
	m.mu.Lock()
	pending := m.state == StateUnknown
	m.mu.Unlock()
	if !pending {
		return
	}

	start := m.enter(false)
	outcome := StateAnonymous
	var restored *store.SessionRecord
	defer func() {
		m.mu.Lock()
		if m.state == StateUnknown {
			m.state = outcome
			m.session = restored
		}
		m.mu.Unlock()
		m.leave(start, nil)
	}()

	rec, ok, err := m.store.LoadSession(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "session restore failed", "error", err)
		m.metrics.Inc(MetricRestoreFailure)
		m.emitAudit(ctx, auditEventRestoreFailure, false, "", "", err, nil)
		return
	}

	if ok {
		reason := m.rejectRestored(rec)
		if reason == "" {
			outcome = StateAuthenticated
			restored = &rec
			m.metrics.Inc(MetricRestoreAuthenticated)
			m.emitAudit(ctx, auditEventRestoreAuthenticated, true, rec.User.ID, rec.User.Email, nil, nil)
			return
		}
		if reason == "expired" {
			m.metrics.Inc(MetricSessionExpired)
		}
		m.emitAudit(ctx, auditEventSessionExpired, false, rec.User.ID, rec.User.Email, ErrSessionExpired, func() map[string]string {
			return map[string]string{"reason": reason, "phase": "restore"}
		})
	}

	if err := m.store.ClearSession(ctx); err != nil {
		m.logger.WarnContext(ctx, "could not clear stale session during restore", "error", err)
		m.metrics.Inc(MetricRestoreFailure)
		m.emitAudit(ctx, auditEventRestoreFailure, false, "", "", err, nil)
		return
	}
	m.metrics.Inc(MetricRestoreAnonymous)
	m.emitAudit(ctx, auditEventRestoreAnonymous, true, "", "", nil, nil)
}

// rejectRestored returns why a persisted session cannot be trusted, or "".
func (m *Manager) rejectRestored(rec store.SessionRecord) string {
	claims, err := m.codec.Decode(rec.Token)
	if err != nil {
		return "malformed"
	}
	if !m.codec.IsLive(rec.Token, m.now()) {
		return "expired"
	}
	if claims.UserID != rec.User.ID {
		return "subject_mismatch"
	}
	return ""
}

// Register appends a new user with role "user" to the directory. It does not
// log the user in.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	start := m.enter(true)
	res, err := m.register(ctx, in)
	m.leave(start, err)
	return res, err
}

func (m *Manager) register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	// A taken email is reported as a duplicate whatever else is wrong with
	// the form.
	if m.reserved != nil && in.Email == m.reserved.Email {
		m.metrics.Inc(MetricRegisterDuplicate)
		m.emitAudit(ctx, auditEventRegisterDuplicate, false, "", in.Email, ErrDuplicateEmail, nil)
		return nil, ErrDuplicateEmail
	}

	// Writing after a failed read would replace a directory we never saw.
	dir, err := m.store.LoadDirectory(ctx)
	if err != nil {
		m.metrics.Inc(MetricRegisterFailure)
		m.emitAudit(ctx, auditEventRegisterFailure, false, "", in.Email, err, nil)
		return nil, err
	}
	if _, taken := dir.FindByEmail(in.Email); taken {
		m.metrics.Inc(MetricRegisterDuplicate)
		m.emitAudit(ctx, auditEventRegisterDuplicate, false, "", in.Email, ErrDuplicateEmail, nil)
		return nil, ErrDuplicateEmail
	}

	if err := validateRegisterInput(m.validate, in); err != nil {
		m.metrics.Inc(MetricRegisterInvalid)
		m.emitAudit(ctx, auditEventRegisterInvalid, false, "", in.Email, err, nil)
		return nil, err
	}

	now := m.now().UTC()
	id, err := m.ids.NewUserID(now)
	if err != nil {
		m.metrics.Inc(MetricRegisterFailure)
		return nil, err
	}
	secret, err := m.secrets.Seal(in.Password)
	if err != nil {
		m.metrics.Inc(MetricRegisterFailure)
		return nil, err
	}

	dir = append(dir, UserRecord{
		ID:        id,
		Email:     in.Email,
		Name:      in.Name,
		Secret:    secret,
		Role:      RoleUser,
		CreatedAt: now,
	})
	if err := m.store.SaveDirectory(ctx, dir); err != nil {
		m.metrics.Inc(MetricRegisterFailure)
		m.emitAudit(ctx, auditEventRegisterFailure, false, id, in.Email, err, nil)
		return nil, err
	}

	m.metrics.Inc(MetricRegisterSuccess)
	m.emitAudit(ctx, auditEventRegisterSuccess, true, id, in.Email, nil, nil)
	return &RegisterResult{Success: true, Message: msgRegistered, UserID: id}, nil
}

// Login authenticates email and password, first against the directory and
// then against the reserved credential. An unknown email and a wrong password
// both yield ErrInvalidCredentials.
//
// The session is persisted before memory changes, so a store failure leaves
// the previous session in place.
func (m *Manager) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	start := m.enter(true)
	res, err := m.login(ctx, email, password)
	m.leave(start, err)
	return res, err
}

func (m *Manager) login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, found := m.matchCredentials(ctx, email, password)
	if !found {
		m.metrics.Inc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	tok, err := m.codec.Encode(user)
	if err != nil {
		m.metrics.Inc(MetricLoginPersistFailure)
		return nil, err
	}
	rec := store.SessionRecord{User: user, Token: tok}
	if err := m.store.SaveSession(ctx, rec); err != nil {
		m.metrics.Inc(MetricLoginPersistFailure)
		m.emitAudit(ctx, auditEventLoginPersistFailure, false, user.ID, user.Email, err, nil)
		return nil, err
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.session = &rec
	m.mu.Unlock()

	m.metrics.Inc(MetricLoginSuccess)
	if user.Role == RoleAdmin {
		m.metrics.Inc(MetricLoginAdmin)
	}
	m.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, user.Email, nil, func() map[string]string {
		return map[string]string{"role": user.Role}
	})
	return &LoginResult{Success: true, User: user}, nil
}

func (m *Manager) matchCredentials(ctx context.Context, email, password string) (PublicUser, bool) {
	dir, err := m.store.LoadDirectory(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "directory unreadable, checking reserved credentials only", "error", err)
	}
	if rec, ok := dir.FindByEmail(email); ok && m.secrets.Match(rec.Secret, password) {
		return rec.Public(), true
	}
	if m.reserved.matches(email, password) {
		return m.reserved.user(m.now()), true
	}
	return PublicUser{}, false
}

// Logout ends the session. It always succeeds and is idempotent; a failure to
// clear the persisted session is logged and audited but not reported.
func (m *Manager) Logout(ctx context.Context) {
	if m.ready() != nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	var userID, email string
	if m.session != nil {
		userID, email = m.session.User.ID, m.session.User.Email
	}
	m.mu.Unlock()

	if err := m.store.ClearSession(ctx); err != nil {
		m.logger.ErrorContext(ctx, "logout could not clear persisted session", "error", err)
		m.metrics.Inc(MetricLogoutClearFailure)
		m.emitAudit(ctx, auditEventLogoutClearFailure, false, userID, email, err, nil)
	}

	m.mu.Lock()
	m.state = StateAnonymous
	m.session = nil
	m.lastErr = ""
	m.mu.Unlock()

	m.metrics.Inc(MetricLogout)
	m.emitAudit(ctx, auditEventLogout, true, userID, email, nil, nil)
	m.notify()
}

// ForgotPassword acknowledges a reset request for a known account. Nothing is
// sent and no state changes; RequestID identifies the simulated request in
// the audit trail.
func (m *Manager) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResult, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	start := m.enter(true)
	res, err := m.forgotPassword(ctx, email)
	m.leave(start, err)
	return res, err
}

func (m *Manager) forgotPassword(ctx context.Context, email string) (*ForgotPasswordResult, error) {
	dir, err := m.store.LoadDirectory(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "directory unreadable during reset request", "error", err)
	}
	rec, known := dir.FindByEmail(email)
	reserved := m.reserved != nil && email == m.reserved.Email
	if !known && !reserved {
		m.metrics.Inc(MetricForgotPasswordUnknown)
		m.emitAudit(ctx, auditEventPasswordResetUnknown, false, "", email, ErrUnknownAccount, nil)
		return nil, ErrUnknownAccount
	}

	userID := rec.ID
	if !known {
		userID = m.reserved.ID
	}
	requestID := uuid.NewString()
	m.metrics.Inc(MetricForgotPasswordRequest)
	m.emitAudit(ctx, auditEventPasswordResetRequest, true, userID, email, nil, func() map[string]string {
		return map[string]string{"request_id": requestID}
	})
	return &ForgotPasswordResult{Success: true, Message: msgResetAccepted, RequestID: requestID}, nil
}

// Verify returns the current user after checking the session token is still
// live. An expired session is cleared and reported as ErrSessionExpired.
// Call it before trusting the cached session for an authorization decision.
func (m *Manager) Verify(ctx context.Context) (PublicUser, error) {
	if err := m.ready(); err != nil {
		return PublicUser{}, err
	}
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()
	if sess == nil {
		return PublicUser{}, ErrNotAuthenticated
	}
	if m.codec.IsLive(sess.Token, m.now()) {
		return sess.User, nil
	}

	if err := m.store.ClearSession(ctx); err != nil {
		m.logger.WarnContext(ctx, "could not clear expired session", "error", err)
	}
	m.mu.Lock()
	// A login that landed meanwhile owns the state now.
	if m.session == sess {
		m.state = StateAnonymous
		m.session = nil
	}
	m.mu.Unlock()

	m.metrics.Inc(MetricSessionExpired)
	m.emitAudit(ctx, auditEventSessionExpired, false, sess.User.ID, sess.User.Email, ErrSessionExpired, func() map[string]string {
		return map[string]string{"phase": "verify"}
	})
	m.notify()
	return PublicUser{}, ErrSessionExpired
}

// Close drains pending audit events. The Manager must not be used afterwards.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.audit.Close()
}

// MetricsSnapshot returns a copy of the in-process counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return NewMetrics(MetricsConfig{}).Snapshot()
	}
	return m.metrics.Snapshot()
}

// AuditStats reports delivered, dropped and sink-panicked audit events. It is
// all zeros when audit is disabled.
func (m *Manager) AuditStats() AuditStats {
	if m == nil {
		return AuditStats{}
	}
	return m.audit.Stats()
}

// enter marks an operation in flight, then sleeps the simulated latency.
func (m *Manager) enter(resetErr bool) time.Time {
	start := time.Now()
	m.mu.Lock()
	m.busy++
	if resetErr {
		m.lastErr = ""
	}
	m.mu.Unlock()
	m.notify()

	if m.cfg.SimulatedLatency > 0 {
		time.Sleep(m.cfg.SimulatedLatency)
	}
	return start
}

func (m *Manager) leave(start time.Time, err error) {
	m.mu.Lock()
	m.busy--
	if err != nil {
		m.lastErr = DisplayMessage(err)
	}
	m.mu.Unlock()

	m.metrics.Observe(MetricOperationLatency, time.Since(start))
	m.notify()
}
