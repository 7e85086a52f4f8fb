package permission

import (
	"time"

	rbacDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/rbac"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
)

type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Description string    `json:"description"`
	CategoryID  *string   `json:"categoryId,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

// Override is one per-user exception. IsGranted=false revokes a permission
// the role would otherwise give.
type Override struct {
	PermissionID     string    `json:"permissionId"`
	PermissionName   string    `json:"permissionName"`
	PermissionActive bool      `json:"-"`
	IsGranted        bool      `json:"isGranted"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type OverrideInput struct {
	PermissionID string `json:"permissionId"`
	IsGranted    bool   `json:"isGranted"`
}

// UserPermissionView shows role-derived permissions, overrides and the
// resulting effective set side by side.
type UserPermissionView struct {
	UserID          string     `json:"userId"`
	RoleID          string     `json:"roleId,omitempty"`
	RoleName        string     `json:"roleName,omitempty"`
	RolePermissions []string   `json:"rolePermissions"`
	Overrides       []Override `json:"overrides"`
	Effective       []string   `json:"effectivePermissions"`
}

// Resolve starts from the role's permission names, adds granted overrides and
// removes revoked ones. Overrides on inactive permissions are ignored.
func Resolve(rolePermissions []string, overrides []Override) rbac.PermissionSet {
	set := rbac.NewPermissionSet(rolePermissions...)
	for _, o := range overrides {
		if !o.PermissionActive {
			set.Remove(o.PermissionName)
			continue
		}
		if o.IsGranted {
			set.Add(o.PermissionName)
		} else {
			set.Remove(o.PermissionName)
		}
	}
	return set
}

type CategoryDefinition struct {
	Name        string
	DisplayName string
	Description string
	SortOrder   int
}

type PermissionDefinition struct {
	Name        string
	DisplayName string
	Description string
	Category    string
}

func FromDataModel(p *rbacDatamodel.Permission) *Permission {
	return &Permission{
		ID:          p.ID,
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func CategoryFromDataModel(c *rbacDatamodel.PermissionCategory) *Category {
	return &Category{
		ID:          c.ID,
		Name:        c.Name,
		DisplayName: c.DisplayName,
		Description: c.Description,
		SortOrder:   c.SortOrder,
	}
}
