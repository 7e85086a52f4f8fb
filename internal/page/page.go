package page

import (
	"time"

	rbacDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/rbac"
)

type Page struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Route       string    `json:"route"`
	SortOrder   int       `json:"sortOrder"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RolePageAccess is one active page as seen by a role. CanAccess is false
// when the role has no row for the page.
type RolePageAccess struct {
	PageID      string `json:"pageId"`
	PageName    string `json:"pageName"`
	DisplayName string `json:"displayName"`
	Route       string `json:"route"`
	CanAccess   bool   `json:"canAccess"`
}

type PagePermissionInput struct {
	PageID    string `json:"pageId"`
	CanAccess bool   `json:"canAccess"`
}

type PageDefinition struct {
	Name        string
	DisplayName string
	Route       string
	SortOrder   int
}

func FromDataModel(p *rbacDatamodel.Page) *Page {
	return &Page{
		ID:          p.ID,
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Route:       p.Route,
		SortOrder:   p.SortOrder,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
