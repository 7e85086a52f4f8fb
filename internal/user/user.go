package user

import (
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	RoleID       *string   `json:"roleId"`
	RoleName     string    `json:"roleName,omitempty"`
	RoleActive   bool      `json:"-"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsActiveUser() bool {
	return u.IsActive
}

// Assignment is the user's stored role as the resolvers see it.
func (u *User) Assignment() rbac.Assignment {
	a := rbac.Assignment{UserID: u.ID, UserActive: u.IsActive}
	if u.RoleID != nil {
		a.RoleID = *u.RoleID
		a.RoleName = u.RoleName
		a.RoleActive = u.RoleActive
	}
	return a
}

// NormalizeEmail trims and lowercases an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		RoleID:       u.RoleID,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// FromDataModel maps a joined row; the role name is derived from the join and
// never stored on the user.
func FromDataModel(row *userDatamodel.UserWithRole) *User {
	u := &User{
		ID:           row.ID,
		Email:        row.Email,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		PasswordHash: row.PasswordHash,
		RoleID:       row.RoleID,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.RoleName != nil {
		u.RoleName = *row.RoleName
	}
	if row.RoleActive != nil {
		u.RoleActive = *row.RoleActive
	}
	return u
}
