package models

import "strings"

// Role enumerates the actor roles recognised by the board.
type Role string

const (
	RoleAdmin     Role = "admin"
	RolePesador   Role = "pesador"
	RoleDigitador Role = "digitador"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RolePesador, RoleDigitador}

// ParseRole normalizes free-form input into a Role. Unknown values yield an
// empty role and false.
func ParseRole(value string) (Role, bool) {
	candidate := Role(strings.TrimSpace(strings.ToLower(value)))
	if candidate.Valid() {
		return candidate, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePesador, RoleDigitador:
		return true
	default:
		return false
	}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
