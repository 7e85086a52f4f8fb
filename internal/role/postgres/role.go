package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/school-admin/internal/core/common/validation"
	rbacDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/school-admin/internal/role"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) List(ctx context.Context) ([]*rbacDatamodel.Role, error) {
	var roles []*rbacDatamodel.Role
	err := r.db.WithContext(ctx).
		Order("is_system_role DESC").
		Order("name ASC").
		Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) GetByID(ctx context.Context, id string) (*rbacDatamodel.Role, error) {
	if !validation.IsUUID(id) {
		return nil, nil
	}
	var rl rbacDatamodel.Role
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rl, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*rbacDatamodel.Role, error) {
	var rl rbacDatamodel.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&rl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rl, nil
}

func (r *RoleRepository) Create(ctx context.Context, rl *rbacDatamodel.Role) error {
	return r.db.WithContext(ctx).Create(rl).Error
}

func (r *RoleRepository) Update(ctx context.Context, rl *rbacDatamodel.Role) error {
	return r.db.WithContext(ctx).Save(rl).Error
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&rbacDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", id).Delete(&rbacDatamodel.RolePagePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&userDatamodel.User{}).Where("role_id = ?", id).Update("role_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&rbacDatamodel.Role{}).Error
	})
}

func (r *RoleRepository) PermissionsForRole(ctx context.Context, roleID string) ([]*rbacDatamodel.Permission, error) {
	var perms []*rbacDatamodel.Permission
	if !validation.IsUUID(roleID) {
		return perms, nil
	}
	err := r.db.WithContext(ctx).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ? AND permissions.is_active = ?", roleID, true).
		Order("permissions.name ASC").
		Find(&perms).Error
	return perms, err
}

func (r *RoleRepository) PermissionsForRoleName(ctx context.Context, name string) ([]*rbacDatamodel.Permission, error) {
	var perms []*rbacDatamodel.Permission
	err := r.db.WithContext(ctx).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Where("roles.name = ? AND permissions.is_active = ?", name, true).
		Order("permissions.name ASC").
		Find(&perms).Error
	return perms, err
}

func (r *RoleRepository) ExistingPermissionIDs(ctx context.Context, ids []string) ([]string, error) {
	var found []string
	if len(ids) == 0 {
		return found, nil
	}
	err := r.db.WithContext(ctx).
		Model(&rbacDatamodel.Permission{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	return found, err
}

func (r *RoleRepository) ReplacePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&rbacDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		if len(permissionIDs) == 0 {
			return nil
		}

		rows := make([]*rbacDatamodel.RolePermission, 0, len(permissionIDs))
		for _, pid := range permissionIDs {
			rows = append(rows, &rbacDatamodel.RolePermission{RoleID: roleID, PermissionID: pid})
		}
		return tx.Create(&rows).Error
	})
}
