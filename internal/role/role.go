package role

import (
	"time"

	rbacDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/rbac"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
)

type Role struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"displayName"`
	Description  string    `json:"description"`
	IsSystemRole bool      `json:"isSystemRole"`
	IsDeletable  bool      `json:"isDeletable"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CanDelete is false for system roles and for roles flagged non-deletable.
func (r *Role) CanDelete() bool {
	return !r.IsSystemRole && r.IsDeletable
}

func (r *Role) IsAdmin() bool {
	return rbac.IsAdminRole(r.Name)
}

// Permission is a permission as seen through a role grant.
type Permission struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Description string  `json:"description"`
	CategoryID  *string `json:"categoryId,omitempty"`
	IsActive    bool    `json:"isActive"`
}

func NewCustomRole(name, displayName, description string) *Role {
	now := time.Now()
	return &Role{
		Name:        name,
		DisplayName: displayName,
		Description: description,
		IsDeletable: true,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type systemRoleDefinition struct {
	Name        string
	DisplayName string
	Description string
}

var systemRoleDefinitions = []systemRoleDefinition{
	{Name: rbac.RoleAdmin, DisplayName: "Administrator", Description: "Full access to every permission and page"},
	{Name: rbac.RoleSecretary, DisplayName: "Secretary", Description: "Front office and enrolment administration"},
	{Name: rbac.RoleTeacher, DisplayName: "Teacher", Description: "Class and attendance management"},
	{Name: rbac.RoleStudent, DisplayName: "Student", Description: "Read access to own records"},
}

func ToDataModel(r *Role) *rbacDatamodel.Role {
	return &rbacDatamodel.Role{
		ID:           r.ID,
		Name:         r.Name,
		DisplayName:  r.DisplayName,
		Description:  r.Description,
		IsSystemRole: r.IsSystemRole,
		IsDeletable:  r.IsDeletable,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func FromDataModel(r *rbacDatamodel.Role) *Role {
	return &Role{
		ID:           r.ID,
		Name:         r.Name,
		DisplayName:  r.DisplayName,
		Description:  r.Description,
		IsSystemRole: r.IsSystemRole,
		IsDeletable:  r.IsDeletable,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func PermissionFromDataModel(p *rbacDatamodel.Permission) Permission {
	return Permission{
		ID:          p.ID,
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		IsActive:    p.IsActive,
	}
}

// PermissionNames projects a permission list onto its names.
func PermissionNames(perms []Permission) []string {
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	return names
}
