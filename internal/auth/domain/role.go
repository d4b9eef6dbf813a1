package domain

import "fmt"

// Role classifies a user account.
type Role string

const (
	// RoleUser is the standard role. It only sees resources it owns.
	RoleUser Role = "user"
	// RoleAdmin is the elevated role. It bypasses ownership checks.
	RoleAdmin Role = "admin"
)

// IsElevated reports whether the role bypasses ownership checks.
func (r Role) IsElevated() bool {
	return r == RoleAdmin
}

// ParseRole converts a stored or transmitted role name into a Role.
func ParseRole(name string) (Role, error) {
	switch Role(name) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", name)
	}
}
