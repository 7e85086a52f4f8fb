package user

import (
	errors "github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/core/common/validation"
)

type CreateUserRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	RoleID    *string `json:"roleId,omitempty"`
}

func (r CreateUserRequest) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("password", r.Password).Required().MinLength(8).MaxLength(72)
	v.Field("firstName", r.FirstName).Required().MaxLength(100)
	v.Field("lastName", r.LastName).Required().MaxLength(100)
	if err := v.Validate(); err != nil {
		return err
	}
	return validation.ValidateEmail(r.Email)
}

// AssignRoleRequest with a null roleId clears the assignment.
type AssignRoleRequest struct {
	RoleID *string `json:"roleId"`
}

type UsersResponse struct {
	Users  []*User `json:"users"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
