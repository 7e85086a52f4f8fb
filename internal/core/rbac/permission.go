package rbac

import (
	"sort"
	"strings"
)

// Well-known permission names referenced by routes.
const (
	PermissionManage = "permissions:manage"
	UsersRead        = "users:read"
	UsersWrite       = "users:write"
)

// PermissionName joins a resource and an action as "<resource>:<action>".
func PermissionName(resource, action string) string {
	return resource + ":" + action
}

// SplitPermissionName is the inverse of PermissionName.
func SplitPermissionName(name string) (resource, action string, ok bool) {
	resource, action, ok = strings.Cut(name, ":")
	if !ok || resource == "" || action == "" || strings.Contains(action, ":") {
		return "", "", false
	}
	return resource, action, true
}

// PermissionSet is an unordered set of permission names.
type PermissionSet map[string]struct{}

func NewPermissionSet(names ...string) PermissionSet {
	s := make(PermissionSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s PermissionSet) Add(name string) {
	s[name] = struct{}{}
}

func (s PermissionSet) Remove(name string) {
	delete(s, name)
}

func (s PermissionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s PermissionSet) Len() int {
	return len(s)
}

// Names returns the members sorted.
func (s PermissionSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
