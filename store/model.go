package store

import "time"

// Role values carried by users and session tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserRecord is a directory entry. Secret holds the password exactly as the
// configured secret matcher sealed it; with the default matcher that is
// plaintext.
type UserRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Secret    string    `json:"password"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips the secret.
func (u UserRecord) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// PublicUser is the only user shape handed to consumers or persisted as the
// session user.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Directory is the ordered list of registered users.
type Directory []UserRecord

// FindByEmail returns the entry with exactly this email.
func (d Directory) FindByEmail(email string) (UserRecord, bool) {
	for _, u := range d {
		if u.Email == email {
			return u, true
		}
	}
	return UserRecord{}, false
}

// SessionRecord is the persisted active session.
type SessionRecord struct {
	User  PublicUser
	Token string
}
