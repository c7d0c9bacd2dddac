// Package model defines the core domain models used throughout the application.
package model

import (
	"strings"
	"time"
)

// Role identifies what a console user is allowed to do.
type Role string

const (
	// RoleAdmin can manage users and every bank resource.
	RoleAdmin Role = "admin"
	// RoleOperator can manage bills and directory entries.
	RoleOperator Role = "operator"
	// RoleViewer has read-only access.
	RoleViewer Role = "viewer"
)

// User is an account managed by the user service.
type User struct {
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Username  string    `json:"username" yaml:"username"`
	Email     string    `json:"email" yaml:"email"`
	FirstName string    `json:"firstName" yaml:"firstName"`
	LastName  string    `json:"lastName" yaml:"lastName"`
	Role      Role      `json:"role" yaml:"role"`
	ID        int       `json:"id" yaml:"id"`
	Active    bool      `json:"active" yaml:"active"`
}

// FullName joins the first and last name, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// NewUser is the payload for creating a user.
type NewUser struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      Role   `json:"role"`
}
