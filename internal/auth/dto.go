package auth

import (
	errors "github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken"`
}

func (d LoginDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required()
	v.Field("password", d.Password).Required()
	return v.Validate()
}

func (d RefreshTokenDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("refreshToken", d.RefreshToken).Required()
	return v.Validate()
}

type PermissionsResponse struct {
	Permissions []string `json:"permissions"`
}

type PagesResponse struct {
	Pages []string `json:"pages"`
}
