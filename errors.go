package compassAuth

import (
	"errors"

	"github.com/careercompass/compassAuth/store"
	"github.com/careercompass/compassAuth/token"
)

var (
	// ErrDuplicateEmail is returned by Register when the email is already taken,
	// either by a directory entry or by a reserved credential.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned by Login for an unknown email and for a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownAccount is returned by ForgotPassword for an email with no account.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrInvalidInput is returned by Register when the input fails validation.
	ErrInvalidInput = errors.New("invalid registration input")
	// ErrNotAuthenticated is returned by Verify when no session is held.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired is returned by Verify when the held session's token is no
	// longer live. The session is cleared before it is returned.
	ErrSessionExpired = errors.New("session expired")
	// ErrManagerNotReady is returned when a Manager was not built by a Builder.
	ErrManagerNotReady = errors.New("session manager not initialized")

	// ErrMalformedToken re-exports [token.ErrMalformedToken].
	ErrMalformedToken = token.ErrMalformedToken
	// ErrStoreRead re-exports [store.ErrStoreRead].
	ErrStoreRead = store.ErrStoreRead
	// ErrStoreWrite re-exports [store.ErrStoreWrite].
	ErrStoreWrite = store.ErrStoreWrite
)

// DisplayMessage returns the human-readable text a consumer shows for err.
// Business-rule errors map to fixed messages; anything else gets a generic one.
func DisplayMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateEmail):
		return "User with this email already exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrUnknownAccount):
		return "No account found with this email address"
	case errors.Is(err, ErrInvalidInput):
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Message != "" {
			return verr.Message
		}
		return "Please check the form and try again"
	case errors.Is(err, ErrNotAuthenticated):
		return "Please login to continue"
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please login again."
	case errors.Is(err, ErrStoreWrite), errors.Is(err, ErrStoreRead):
		return "Could not save your data. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
