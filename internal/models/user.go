package models

import (
	"time"
)

// Role is the authorization role carried by a user and its tokens.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleModerator:
		return true
	}
	return false
}

// User is the stored identity record. It carries the password hash and must
// never be serialized; use Public for anything leaving the service layer.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the user representation without credentials.
type PublicUser struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public projects the user onto its credential-free view.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// PublicUsers projects a slice of users.
func PublicUsers(users []*User) []*PublicUser {
	out := make([]*PublicUser, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}

// UserDraft holds the fields required to insert a user. Email must already be
// normalized and the password already hashed.
type UserDraft struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
}

// UserPatch holds fields that can be updated. A nil field is left untouched.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Role      *Role
	IsActive  *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil && p.Role == nil && p.IsActive == nil
}

// UserFilter narrows a user listing. Zero values mean "no filter".
type UserFilter struct {
	Search   string
	Role     *Role
	IsActive *bool
}
