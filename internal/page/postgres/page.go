package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/school-admin/internal/core/common/validation"
	rbacDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/rbac"
	"github.com/frahmantamala/school-admin/internal/page"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PageRepository struct {
	db *gorm.DB
}

func NewPageRepository(db *gorm.DB) page.RepositoryAPI {
	return &PageRepository{db: db}
}

func (r *PageRepository) ListPages(ctx context.Context) ([]*rbacDatamodel.Page, error) {
	var pages []*rbacDatamodel.Page
	err := r.db.WithContext(ctx).Order("sort_order ASC").Order("name ASC").Find(&pages).Error
	return pages, err
}

func (r *PageRepository) GetPageByID(ctx context.Context, id string) (*rbacDatamodel.Page, error) {
	if !validation.IsUUID(id) {
		return nil, nil
	}
	var p rbacDatamodel.Page
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PageRepository) ActivePageNames(ctx context.Context) ([]string, error) {
	names := []string{}
	err := r.db.WithContext(ctx).
		Model(&rbacDatamodel.Page{}).
		Where("is_active = ?", true).
		Order("sort_order ASC").Order("name ASC").
		Pluck("name", &names).Error
	return names, err
}

func (r *PageRepository) ExistingPageIDs(ctx context.Context, ids []string) ([]string, error) {
	var found []string
	if len(ids) == 0 {
		return found, nil
	}
	err := r.db.WithContext(ctx).
		Model(&rbacDatamodel.Page{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	return found, err
}

func (r *PageRepository) EnsurePage(ctx context.Context, p *rbacDatamodel.Page) (*rbacDatamodel.Page, error) {
	var existing rbacDatamodel.Page
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

func (r *PageRepository) DeletePage(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("page_id = ?", id).Delete(&rbacDatamodel.RolePagePermission{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&rbacDatamodel.Page{}).Error
	})
}

func (r *PageRepository) AllowedPageNames(ctx context.Context, roleID string) ([]string, error) {
	names := []string{}
	if !validation.IsUUID(roleID) {
		return names, nil
	}
	err := r.db.WithContext(ctx).
		Table("pages AS p").
		Joins("JOIN role_page_permissions rp ON rp.page_id = p.id").
		Where("rp.role_id = ? AND rp.can_access = ? AND p.is_active = ?", roleID, true, true).
		Order("p.sort_order ASC").Order("p.name ASC").
		Pluck("p.name", &names).Error
	return names, err
}

func (r *PageRepository) HasPageAccess(ctx context.Context, roleID, pageName string) (bool, error) {
	if !validation.IsUUID(roleID) {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Table("role_page_permissions AS rp").
		Joins("JOIN pages p ON p.id = rp.page_id").
		Where("rp.role_id = ? AND rp.can_access = ? AND p.is_active = ? AND p.name = ?", roleID, true, true, pageName).
		Count(&count).Error
	return count > 0, err
}

func (r *PageRepository) RolePageAccess(ctx context.Context, roleID string) ([]page.RolePageAccess, error) {
	access := []page.RolePageAccess{}
	err := r.db.WithContext(ctx).
		Table("pages AS p").
		Select("p.id AS page_id, p.name AS page_name, p.display_name, p.route, COALESCE(rp.can_access, ?) AS can_access", false).
		Joins("LEFT JOIN role_page_permissions rp ON rp.page_id = p.id AND rp.role_id = ?", roleID).
		Where("p.is_active = ?", true).
		Order("p.sort_order ASC").Order("p.name ASC").
		Scan(&access).Error
	return access, err
}

func (r *PageRepository) UpsertRolePages(ctx context.Context, rows []*rbacDatamodel.RolePagePermission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, row := range rows {
			row.UpdatedAt = now
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "role_id"}, {Name: "page_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"can_access", "updated_at"}),
			}).Create(row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
