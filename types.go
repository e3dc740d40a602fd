package compassAuth

import "github.com/careercompass/compassAuth/store"

// State is the session state machine position.
type State uint8

const (
	// StateUnknown is the initial state, held until Restore settles.
	StateUnknown State = iota
	// StateAnonymous means no valid session is held.
	StateAnonymous
	// StateAuthenticated means a live session is held.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}

// Role values carried by [PublicUser.Role].
const (
	RoleUser  = store.RoleUser
	RoleAdmin = store.RoleAdmin
)

type (
	// UserRecord is a directory entry, secret included.
	UserRecord = store.UserRecord
	// PublicUser is a UserRecord without its secret. It is the only user shape
	// handed to consumers.
	PublicUser = store.PublicUser
)

// RegisterInput carries a registration request.
type RegisterInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,password_mix"`
	Name     string `validate:"required,min=2,person_name"`
}

// RegisterResult acknowledges a successful registration. Registration never
// establishes a session.
type RegisterResult struct {
	Success bool
	Message string
	UserID  string
}

// LoginResult carries the user a successful login authenticated.
type LoginResult struct {
	Success bool
	User    PublicUser
}

// ForgotPasswordResult acknowledges a simulated reset request. No message is
// actually delivered.
type ForgotPasswordResult struct {
	Success   bool
	Message   string
	RequestID string
}

const (
	msgRegistered    = "Registration successful! Please login."
	msgResetAccepted = "Password reset instructions sent to your email"
)
