package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account in the claims system. Credential handling lives in the
// auth layer; the domain only carries the stored hash.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	IsVerified   bool      `json:"is_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Role int

const (
	RolePolicyholder Role = iota
	RoleEmployee
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RolePolicyholder:
		return "policyholder"
	case RoleEmployee:
		return "employee"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole converts a stored role string back to a Role
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "policyholder":
		return RolePolicyholder, nil
	case "employee":
		return RoleEmployee, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RolePolicyholder, fmt.Errorf("unknown role %q", s)
	}
}

// NewUser creates a user with the given role
func NewUser(username, email string, role Role) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email: %s", email)
	}

	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FullName returns the display name for dashboards and graph nodes
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// CanReview reports whether this user may adjudicate claims
func (u *User) CanReview() bool {
	return u.Role == RoleEmployee || u.Role == RoleAdmin
}
