package model

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles. The integer values are the
// canonical wire and storage encoding; no other mapping exists.
type Role int

const (
	RoleAdmin   Role = 0
	RoleTeacher Role = 1
	RoleStudent Role = 2
)

// RoleFromInt maps the wire encoding back to a Role.
func RoleFromInt(i int) (Role, error) {
	switch r := Role(i); r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return r, nil
	default:
		return 0, fmt.Errorf("invalid role: %d", i)
	}
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleStudent
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTeacher:
		return "teacher"
	case RoleStudent:
		return "student"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// User is an account row. Hashes, API keys and one-shot tokens are never
// serialized.
type User struct {
	ID                      int64      `json:"id"`
	Pid                     string     `json:"pid"` // stable external identifier, claims key
	Username                string     `json:"username"`
	Email                   string     `json:"email"`
	HashedPassword          string     `json:"-"`
	APIKey                  string     `json:"-"`
	Role                    Role       `json:"role"`
	ResetToken              *string    `json:"-"`
	ResetSentAt             *time.Time `json:"-"`
	EmailVerificationToken  *string    `json:"-"`
	EmailVerificationSentAt *time.Time `json:"-"`
	EmailVerifiedAt         *time.Time `json:"email_verified_at,omitempty"`
	DisplayedName           *string    `json:"displayed_name,omitempty"`
	Bio                     *string    `json:"bio,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func (u *User) Verified() bool {
	return u.EmailVerifiedAt != nil
}
