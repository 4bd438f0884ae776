package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleContributor UserRole = "contributor"
	RoleReader      UserRole = "reader"
)

func (r UserRole) Valid() bool {
	return r == RoleContributor || r == RoleReader
}

type Profile struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Username   *string   `json:"username,omitempty"`
	Bio        *string   `json:"bio,omitempty"`
	Website    *string   `json:"website,omitempty"`
	UserRole   UserRole  `json:"user_role"`
	IsAdmin    bool      `json:"is_admin"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProfileAccess is the projection of a profile the edge gate reads.
type ProfileAccess struct {
	ID         uuid.UUID
	UserRole   UserRole
	IsAdmin    bool
	IsVerified bool
}

// Access returns the access projection of p.
func (p *Profile) Access() *ProfileAccess {
	return &ProfileAccess{
		ID:         p.ID,
		UserRole:   p.UserRole,
		IsAdmin:    p.IsAdmin,
		IsVerified: p.IsVerified,
	}
}
