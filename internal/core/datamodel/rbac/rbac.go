package rbac

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	Name         string    `gorm:"column:name;uniqueIndex;not null"`
	DisplayName  string    `gorm:"column:display_name;not null"`
	Description  string    `gorm:"column:description"`
	IsSystemRole bool      `gorm:"column:is_system_role;not null"`
	IsDeletable  bool      `gorm:"column:is_deletable;not null"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string { return "roles" }

func (r *Role) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type PermissionCategory struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	DisplayName string    `gorm:"column:display_name;not null"`
	Description string    `gorm:"column:description"`
	SortOrder   int       `gorm:"column:sort_order;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PermissionCategory) TableName() string { return "permission_categories" }

func (c *PermissionCategory) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Permission struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	DisplayName string    `gorm:"column:display_name;not null"`
	Description string    `gorm:"column:description"`
	CategoryID  *string   `gorm:"column:category_id;type:uuid;index"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Permission) TableName() string { return "permissions" }

func (p *Permission) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type RolePermission struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	RoleID       string    `gorm:"column:role_id;type:uuid;not null;uniqueIndex:idx_role_permission"`
	PermissionID string    `gorm:"column:permission_id;type:uuid;not null;uniqueIndex:idx_role_permission;index"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RolePermission) TableName() string { return "role_permissions" }

func (rp *RolePermission) BeforeCreate(_ *gorm.DB) error {
	if rp.ID == "" {
		rp.ID = uuid.NewString()
	}
	return nil
}

type UserPermissionOverride struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	UserID       string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_user_permission"`
	PermissionID string    `gorm:"column:permission_id;type:uuid;not null;uniqueIndex:idx_user_permission;index"`
	IsGranted    bool      `gorm:"column:is_granted;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserPermissionOverride) TableName() string { return "user_permission_overrides" }

func (o *UserPermissionOverride) BeforeCreate(_ *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type Page struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	DisplayName string    `gorm:"column:display_name;not null"`
	Route       string    `gorm:"column:route;not null"`
	SortOrder   int       `gorm:"column:sort_order;not null"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Page) TableName() string { return "pages" }

func (p *Page) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type RolePagePermission struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	RoleID    string    `gorm:"column:role_id;type:uuid;not null;uniqueIndex:idx_role_page"`
	PageID    string    `gorm:"column:page_id;type:uuid;not null;uniqueIndex:idx_role_page;index"`
	CanAccess bool      `gorm:"column:can_access;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (RolePagePermission) TableName() string { return "role_page_permissions" }

func (rp *RolePagePermission) BeforeCreate(_ *gorm.DB) error {
	if rp.ID == "" {
		rp.ID = uuid.NewString()
	}
	return nil
}

// AllModels lists every table in dependency order; tests auto-migrate it.
func AllModels() []interface{} {
	return []interface{}{
		&Role{},
		&PermissionCategory{},
		&Permission{},
		&RolePermission{},
		&UserPermissionOverride{},
		&Page{},
		&RolePagePermission{},
	}
}
