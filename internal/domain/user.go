package domain

import (
	"fmt"
	"strings"
)

// Role represents what a registered user does on the platform.
type Role string

const (
	RoleRider  Role = "Rider"
	RoleDriver Role = "Driver"
)

// ParseRole converts stored role text into a Role.
// The legacy texts "Student" and "Cab Driver" are accepted as well.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rider", "student":
		return RoleRider, nil
	case "driver", "cab driver":
		return RoleDriver, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// User represents a registered user. Users are immutable once created.
type User struct {
	Name     string
	Username string
	Password string
	Role     Role
	Phone    string
}

// String returns the display form used on trip screens.
func (u *User) String() string {
	return u.Name + " (" + u.Phone + ")"
}
