package domain

import "strings"

// Role is a single capability bit.
type Role uint8

const (
	RoleAdmin Role = 1 << iota
	RoleMerchant
)

// ParseRole accepts "ADMIN" or "MERCHANT" (case-insensitive, optional "_ROLE" suffix).
func ParseRole(s string) (Role, error) {
	switch strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), "_ROLE") {
	case "ADMIN":
		return RoleAdmin, nil
	case "MERCHANT":
		return RoleMerchant, nil
	default:
		return 0, ErrInvalidRole
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleMerchant:
		return "MERCHANT"
	default:
		return "UNKNOWN"
	}
}

// RoleSet is the bitset of roles held by one address.
type RoleSet uint8

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool {
	return s&RoleSet(r) != 0
}

// With returns the set with r added.
func (s RoleSet) With(r Role) RoleSet {
	return s | RoleSet(r)
}

// Without returns the set with r removed.
func (s RoleSet) Without(r Role) RoleSet {
	return s &^ RoleSet(r)
}

// Roles lists the roles in the set, admin first.
func (s RoleSet) Roles() []Role {
	var roles []Role
	for _, r := range []Role{RoleAdmin, RoleMerchant} {
		if s.Has(r) {
			roles = append(roles, r)
		}
	}
	return roles
}
