package role

import (
	errors "github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/core/common/validation"
)

type CreateRoleRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

func (r CreateRoleRequest) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("displayName", r.DisplayName).Required().MaxLength(100)
	v.Field("description", r.Description).MaxLength(500)
	return v.Validate()
}

// UpdateRoleRequest carries only the fields the caller wants changed.
type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

func (r UpdateRoleRequest) Validate() *errors.AppError {
	v := validation.NewValidator()
	if r.DisplayName != nil {
		v.Field("displayName", *r.DisplayName).Required().MaxLength(100)
	}
	if r.Description != nil {
		v.Field("description", *r.Description).MaxLength(500)
	}
	return v.Validate()
}

type SetRolePermissionsRequest struct {
	PermissionIDs []string `json:"permissionIds"`
}

type RolesResponse struct {
	Roles []*Role `json:"roles"`
}

type RolePermissionsResponse struct {
	RoleID      string       `json:"roleId"`
	Permissions []Permission `json:"permissions"`
}
