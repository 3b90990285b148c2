package core

import (
	"context"
	"time"
)

// Staff roles. Managers handle fulfillment but cannot close out deliveries or purge orders.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// ValidRole reports whether role is a known staff role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleManager
}

// User is a staff account.
type User struct {
	ID           int
	Username     string
	DisplayName  string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

// UserService provides staff account lookup and credential checks.
type UserService interface {
	// GetByUsername finds an active user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns a user by primary key.
	GetByID(ctx context.Context, userID int) (*User, error)

	// Authenticate returns the active user whose password matches.
	// Unknown users and wrong passwords both yield ErrNotFound.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// CreateUser adds a staff account with a bcrypt-hashed password.
	CreateUser(ctx context.Context, username, displayName, password, role string) (*User, error)
}
