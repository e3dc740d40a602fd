package compassAuth

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	auditEventRestoreAuthenticated = "restore_authenticated"
	auditEventRestoreAnonymous     = "restore_anonymous"
	auditEventRestoreFailure       = "restore_failure"
	auditEventRegisterSuccess      = "register_success"
	auditEventRegisterDuplicate    = "register_duplicate"
	auditEventRegisterInvalid      = "register_invalid"
	auditEventRegisterFailure      = "register_failure"
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventLoginPersistFailure  = "login_persist_failure"
	auditEventLogout               = "logout"
	auditEventLogoutClearFailure   = "logout_clear_failure"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventPasswordResetUnknown = "password_reset_unknown"
	auditEventSessionExpired       = "session_expired"
)

// AuditErrorCode is the stable failure label carried in [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrDuplicateEmail     AuditErrorCode = "duplicate_email"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnknownAccount     AuditErrorCode = "unknown_account"
	auditErrInvalidInput       AuditErrorCode = "invalid_input"
	auditErrSessionExpired     AuditErrorCode = "session_expired"
	auditErrMalformedToken     AuditErrorCode = "malformed_token"
	auditErrStoreRead          AuditErrorCode = "store_read_failed"
	auditErrStoreWrite         AuditErrorCode = "store_write_failed"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (m *Manager) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: m.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Email:     maskEmail(email),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	m.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateEmail):
		return auditErrDuplicateEmail
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnknownAccount):
		return auditErrUnknownAccount
	case errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrMalformedToken):
		return auditErrMalformedToken
	case errors.Is(err, ErrStoreRead):
		return auditErrStoreRead
	case errors.Is(err, ErrStoreWrite):
		return auditErrStoreWrite
	default:
		return auditErrInternal
	}
}

// maskEmail keeps the first rune of the local part and the domain, so audit
// trails can be correlated without recording full addresses.
func maskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	_, size := utf8.DecodeRuneInString(email)
	return email[:size] + "***" + email[at:]
}
