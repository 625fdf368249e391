package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Auth provider values stored in users.auth_provider.
const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// User represents a user account.
type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Username       *string   `json:"username,omitempty" db:"username"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   *string   `json:"-" db:"password_hash"`
	Name           *string   `json:"name,omitempty" db:"name"`
	ProfilePicture *string   `json:"profile_picture,omitempty" db:"profile_picture"`
	AuthProvider   string    `json:"auth_provider" db:"auth_provider"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// DisplayName resolves the name shown on the site: display name, then
// username, then the local part of the email address.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	if i := strings.IndexByte(u.Email, '@'); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}

// PasswordReset is a single-use, expiring token for the password-reset flow.
type PasswordReset struct {
	Token     string     `json:"token" db:"token"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty" db:"used_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
