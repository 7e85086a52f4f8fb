package testdb

import (
	rbacDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/user"
	"gorm.io/gorm"
)

func SeedRole(db *gorm.DB, name string, system bool) *rbacDatamodel.Role {
	r := &rbacDatamodel.Role{
		Name:         name,
		DisplayName:  name,
		IsSystemRole: system,
		IsDeletable:  !system,
		IsActive:     true,
	}
	must(db.Create(r).Error)
	return r
}

func SeedPermission(db *gorm.DB, name string) *rbacDatamodel.Permission {
	p := &rbacDatamodel.Permission{Name: name, DisplayName: name, IsActive: true}
	must(db.Create(p).Error)
	return p
}

func SeedPage(db *gorm.DB, name string, sortOrder int) *rbacDatamodel.Page {
	p := &rbacDatamodel.Page{Name: name, DisplayName: name, Route: "/" + name, SortOrder: sortOrder, IsActive: true}
	must(db.Create(p).Error)
	return p
}

// SeedUser creates an active user; a nil role leaves the user roleless.
func SeedUser(db *gorm.DB, email string, role *rbacDatamodel.Role) *userDatamodel.User {
	u := &userDatamodel.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
		IsActive:     true,
	}
	if role != nil {
		u.RoleID = &role.ID
	}
	must(db.Create(u).Error)
	return u
}

func Grant(db *gorm.DB, role *rbacDatamodel.Role, perms ...*rbacDatamodel.Permission) {
	for _, p := range perms {
		must(db.Create(&rbacDatamodel.RolePermission{RoleID: role.ID, PermissionID: p.ID}).Error)
	}
}

func Override(db *gorm.DB, user *userDatamodel.User, perm *rbacDatamodel.Permission, granted bool) {
	must(db.Create(&rbacDatamodel.UserPermissionOverride{UserID: user.ID, PermissionID: perm.ID, IsGranted: granted}).Error)
}

func AllowPage(db *gorm.DB, role *rbacDatamodel.Role, page *rbacDatamodel.Page, canAccess bool) {
	must(db.Create(&rbacDatamodel.RolePagePermission{RoleID: role.ID, PageID: page.ID, CanAccess: canAccess}).Error)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
