package rbac

import "strings"

// System role machine names. These four roles exist from bootstrap onward and
// can never be deleted or renamed.
const (
	RoleAdmin     = "admin"
	RoleSecretary = "secretary"
	RoleTeacher   = "teacher"
	RoleStudent   = "student"
)

var systemRoles = []string{RoleAdmin, RoleSecretary, RoleTeacher, RoleStudent}

// SystemRoleNames returns the reserved machine names in bootstrap order.
func SystemRoleNames() []string {
	out := make([]string, len(systemRoles))
	copy(out, systemRoles)
	return out
}

// NormalizeRoleName trims and lowercases a machine name.
func NormalizeRoleName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsAdminRole is the one admin-bypass predicate every check consults first.
func IsAdminRole(roleName string) bool {
	return roleName == RoleAdmin
}

// IsSystemRoleName reports an exact match against a reserved machine name.
func IsSystemRoleName(name string) bool {
	for _, r := range systemRoles {
		if r == name {
			return true
		}
	}
	return false
}

// IsReservedRoleName matches reserved names case-insensitively, so "Admin"
// collides with "admin".
func IsReservedRoleName(name string) bool {
	return IsSystemRoleName(NormalizeRoleName(name))
}
