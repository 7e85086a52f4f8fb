package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/school-admin/internal/core/common/validation"
	rbacDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/rbac"
	"github.com/frahmantamala/school-admin/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) ListPermissions(ctx context.Context) ([]*rbacDatamodel.Permission, error) {
	var perms []*rbacDatamodel.Permission
	err := r.db.WithContext(ctx).Order("name ASC").Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) GetPermissionByID(ctx context.Context, id string) (*rbacDatamodel.Permission, error) {
	if !validation.IsUUID(id) {
		return nil, nil
	}
	var p rbacDatamodel.Permission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) ExistingPermissionIDs(ctx context.Context, ids []string) ([]string, error) {
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

func (r *PermissionRepository) EnsurePermission(ctx context.Context, p *rbacDatamodel.Permission) (*rbacDatamodel.Permission, error) {
	var existing rbacDatamodel.Permission
	err := r.db.WithContext(ctx).Where("name = ?", p.Name).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PermissionRepository) DeletePermission(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_id = ?", id).Delete(&rbacDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("permission_id = ?", id).Delete(&rbacDatamodel.UserPermissionOverride{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&rbacDatamodel.Permission{}).Error
	})
}

func (r *PermissionRepository) ListCategories(ctx context.Context) ([]*rbacDatamodel.PermissionCategory, error) {
	var cats []*rbacDatamodel.PermissionCategory
	err := r.db.WithContext(ctx).Order("sort_order ASC").Order("name ASC").Find(&cats).Error
	return cats, err
}

func (r *PermissionRepository) EnsureCategory(ctx context.Context, c *rbacDatamodel.PermissionCategory) (*rbacDatamodel.PermissionCategory, error) {
	var existing rbacDatamodel.PermissionCategory
	err := r.db.WithContext(ctx).Where("name = ?", c.Name).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PermissionRepository) OverridesForUser(ctx context.Context, userID string) ([]permission.Override, error) {
	overrides := []permission.Override{}
	if !validation.IsUUID(userID) {
		return overrides, nil
	}
	err := r.db.WithContext(ctx).
		Table("user_permission_overrides AS o").
		Select("o.permission_id, p.name AS permission_name, p.is_active AS permission_active, o.is_granted, o.updated_at").
		Joins("JOIN permissions p ON p.id = o.permission_id").
		Where("o.user_id = ?", userID).
		Order("p.name ASC").
		Scan(&overrides).Error
	return overrides, err
}

func (r *PermissionRepository) ReplaceOverrides(ctx context.Context, userID string, overrides []*rbacDatamodel.UserPermissionOverride) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&rbacDatamodel.UserPermissionOverride{}).Error; err != nil {
			return err
		}
		if len(overrides) == 0 {
			return nil
		}
		return tx.Create(&overrides).Error
	})
}
