package entity

import "strings"

// Role is the authorization level stored on a user record
type Role string

const (
	RoleUser          Role = "USER"
	RoleAdministrator Role = "ADMINISTRATOR"
)

// DefaultRole is assigned to every newly created user
const DefaultRole = RoleUser

// ParseRole maps a stored role string to a Role, falling back to DefaultRole
// for empty or unknown values written by older clients.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdministrator:
		return RoleAdministrator
	default:
		return RoleUser
	}
}
