package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAgent  Role = "agent"
	RoleClient Role = "client"
)

// ParseRole accepts the English role names and their Spanish aliases
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "administrador":
		return RoleAdmin, true
	case "agent", "agente":
		return RoleAgent, true
	case "client", "cliente":
		return RoleClient, true
	}
	return "", false
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAgent || r == RoleClient
}

// IsStaff reports whether the role belongs to the agency (admin or agent)
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleAgent
}

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize in JSON
	Age          int       `json:"age" db:"age"`
	Role         Role      `json:"role" db:"role"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// SystemActor is used by background jobs
var SystemActor = Actor{UserID: uuid.Nil, Role: RoleAdmin}

// RegisterRequest is the public sign-up payload. DocumentID and Phone, when
// present, create the client record in the same transaction.
type RegisterRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Age        int     `json:"age"`
	Role       string  `json:"role,omitempty"`
	DocumentID *string `json:"document_id,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserInput is used by admins creating users and by anyone updating a profile
type UserInput struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Age      *int    `json:"age,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// Profile is the authenticated user with their client record, if any
type Profile struct {
	User   *User   `json:"user"`
	Client *Client `json:"client,omitempty"`
}
