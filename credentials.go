package compassAuth

import (
	"crypto/subtle"
	"time"

	"github.com/careercompass/compassAuth/store"
)

// SecretMatcher is the only code path that reads or writes
// [UserRecord.Secret]. Swapping in a hashing implementation changes how
// secrets are stored without touching directory logic.
type SecretMatcher interface {
	// Seal turns a submitted password into the value persisted in the directory.
	Seal(plain string) (string, error)
	// Match reports whether plain corresponds to a persisted value.
	Match(stored, plain string) bool
}

// PlaintextSecrets stores passwords as given. Demo only.
type PlaintextSecrets struct{}

func (PlaintextSecrets) Seal(plain string) (string, error) { return plain, nil }

func (PlaintextSecrets) Match(stored, plain string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) == 1
}

// ReservedCredential is a built-in login that never appears in the directory.
// It is consulted only after the directory lookup found no match.
type ReservedCredential struct {
	Email    string
	Password string
	ID       string
	Name     string
	Role     string
}

// DefaultAdmin is the reserved administrator of the demo deployment.
var DefaultAdmin = ReservedCredential{
	Email:    "admin@careercompass.com",
	Password: "admin123",
	ID:       "admin_1",
	Name:     "Admin User",
	Role:     store.RoleAdmin,
}

func (r *ReservedCredential) matches(email, password string) bool {
	if r == nil || email != r.Email {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(r.Password)) == 1
}

// user synthesizes the public identity. CreatedAt is the time of login since
// the credential has no persisted record.
func (r *ReservedCredential) user(now time.Time) PublicUser {
	return PublicUser{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Role:      r.Role,
		CreatedAt: now.UTC(),
	}
}
