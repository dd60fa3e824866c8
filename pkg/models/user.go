package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is an access level.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole accepts "admin"/"user" in any case.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Identity is the currently authenticated user. It never carries a secret.
type Identity struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// CanUpload reports whether the identity may add items.
func (i *Identity) CanUpload() bool {
	return i != nil && (i.Role == RoleUser || i.Role == RoleAdmin)
}

// CanDelete reports whether the identity may remove items.
func (i *Identity) CanDelete() bool {
	return i.IsAdmin()
}

// Account is a record in the admin user directory. The directory is kept
// apart from the credential table used for login.
type Account struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionKey is the fixed storage key of the persisted identity record: the
// cookie name in browsers and the state file name for the CLI.
const SessionKey = "file-index-user"
