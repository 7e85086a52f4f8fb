// Package bootstrap seeds the authorization catalog, the system roles and
// their default grants. Every step ensures by name, so a second run changes
// nothing.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	errors "github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
	"github.com/frahmantamala/school-admin/internal/page"
	"github.com/frahmantamala/school-admin/internal/permission"
	"github.com/frahmantamala/school-admin/internal/role"
	"github.com/frahmantamala/school-admin/internal/user"
)

type PermissionCatalog interface {
	EnsureCategory(ctx context.Context, def permission.CategoryDefinition) (*permission.Category, error)
	EnsurePermission(ctx context.Context, def permission.PermissionDefinition, categoryID *string) (*permission.Permission, error)
}

type PageCatalog interface {
	EnsurePage(ctx context.Context, def page.PageDefinition) (*page.Page, error)
	GetRolePagePermissions(ctx context.Context, roleID string) ([]page.RolePageAccess, error)
	SetRolePagePermissions(ctx context.Context, roleID string, inputs []page.PagePermissionInput) ([]page.RolePageAccess, error)
}

type RoleStore interface {
	EnsureSystemRoles(ctx context.Context) ([]*role.Role, error)
	PermissionsForRole(ctx context.Context, roleID string) ([]role.Permission, error)
	SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) ([]role.Permission, error)
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	CreateUser(ctx context.Context, req user.CreateUserRequest) (*user.User, error)
}

type Options struct {
	AdminEmail    string
	AdminPassword string
}

// Result summarizes one run for the seed command's output.
type Result struct {
	Permissions  int
	Pages        int
	Roles        int
	SeededRoles  []string
	AdminCreated bool
}

type Seeder struct {
	permissions PermissionCatalog
	pages       PageCatalog
	roles       RoleStore
	users       UserStore
	logger      *slog.Logger
}

func NewSeeder(permissions PermissionCatalog, pages PageCatalog, roles RoleStore, users UserStore, logger *slog.Logger) *Seeder {
	return &Seeder{
		permissions: permissions,
		pages:       pages,
		roles:       roles,
		users:       users,
		logger:      logger,
	}
}

func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{}

	permIDs, err := s.ensurePermissions(ctx)
	if err != nil {
		return nil, err
	}
	result.Permissions = len(permIDs)

	pageIDs, err := s.ensurePages(ctx)
	if err != nil {
		return nil, err
	}
	result.Pages = len(pageIDs)

	roles, err := s.roles.EnsureSystemRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure system roles: %w", err)
	}
	result.Roles = len(roles)

	for _, r := range roles {
		seeded, err := s.ensureRoleGrants(ctx, r, permIDs, pageIDs)
		if err != nil {
			return nil, fmt.Errorf("grant defaults to %s: %w", r.Name, err)
		}
		if seeded {
			result.SeededRoles = append(result.SeededRoles, r.Name)
		}
	}

	if opts.AdminEmail != "" {
		created, err := s.ensureAdminUser(ctx, roles, opts)
		if err != nil {
			return nil, fmt.Errorf("ensure admin user: %w", err)
		}
		result.AdminCreated = created
	}

	s.logger.Info("bootstrap complete",
		"permissions", result.Permissions,
		"pages", result.Pages,
		"roles", result.Roles,
		"seeded_roles", result.SeededRoles,
		"admin_created", result.AdminCreated)
	return result, nil
}

// ensurePermissions returns permission ids keyed by name.
func (s *Seeder) ensurePermissions(ctx context.Context) (map[string]string, error) {
	categoryIDs := make(map[string]string, len(DefaultCategories))
	for _, def := range DefaultCategories {
		c, err := s.permissions.EnsureCategory(ctx, def)
		if err != nil {
			return nil, fmt.Errorf("ensure category %s: %w", def.Name, err)
		}
		categoryIDs[def.Name] = c.ID
	}

	ids := make(map[string]string, len(DefaultPermissions))
	for _, def := range DefaultPermissions {
		var categoryID *string
		if id, ok := categoryIDs[def.Category]; ok {
			categoryID = &id
		}
		p, err := s.permissions.EnsurePermission(ctx, def, categoryID)
		if err != nil {
			return nil, fmt.Errorf("ensure permission %s: %w", def.Name, err)
		}
		ids[p.Name] = p.ID
	}
	return ids, nil
}

func (s *Seeder) ensurePages(ctx context.Context) (map[string]string, error) {
	ids := make(map[string]string, len(DefaultPages))
	for _, def := range DefaultPages {
		p, err := s.pages.EnsurePage(ctx, def)
		if err != nil {
			return nil, fmt.Errorf("ensure page %s: %w", def.Name, err)
		}
		ids[p.Name] = p.ID
	}
	return ids, nil
}

// ensureRoleGrants gives admin every catalog row and gives other system roles
// their defaults only while they hold no grants, so later edits survive a rerun.
// Admin rows exist for display; the gate never reads them.
func (s *Seeder) ensureRoleGrants(ctx context.Context, r *role.Role, permIDs, pageIDs map[string]string) (bool, error) {
	current, err := s.roles.PermissionsForRole(ctx, r.ID)
	if err != nil {
		return false, err
	}
	access, err := s.pages.GetRolePagePermissions(ctx, r.ID)
	if err != nil {
		return false, err
	}
	granted := make(map[string]bool, len(access))
	for _, a := range access {
		if a.CanAccess {
			granted[a.PageID] = true
		}
	}

	var wantPerms, wantPages []string
	if rbac.IsAdminRole(r.Name) {
		wantPerms = values(permIDs)
		wantPages = values(pageIDs)
	} else {
		if len(current) > 0 || len(granted) > 0 {
			return false, nil
		}
		wantPerms = lookup(permIDs, DefaultRolePermissions[r.Name])
		wantPages = lookup(pageIDs, DefaultRolePages[r.Name])
	}

	have := make(map[string]bool, len(current))
	ids := make([]string, 0, len(current)+len(wantPerms))
	for _, p := range current {
		have[p.ID] = true
		ids = append(ids, p.ID)
	}
	missing := 0
	for _, id := range wantPerms {
		if !have[id] {
			ids = append(ids, id)
			missing++
		}
	}
	if missing > 0 {
		if _, err := s.roles.SetRolePermissions(ctx, r.ID, ids); err != nil {
			return false, err
		}
	}

	inputs := make([]page.PagePermissionInput, 0, len(wantPages))
	for _, id := range wantPages {
		if !granted[id] {
			inputs = append(inputs, page.PagePermissionInput{PageID: id, CanAccess: true})
		}
	}
	if len(inputs) > 0 {
		if _, err := s.pages.SetRolePagePermissions(ctx, r.ID, inputs); err != nil {
			return false, err
		}
	}
	return missing > 0 || len(inputs) > 0, nil
}

// ensureAdminUser creates the first administrator when the email is free.
// An existing account is left untouched.
func (s *Seeder) ensureAdminUser(ctx context.Context, roles []*role.Role, opts Options) (bool, error) {
	_, err := s.users.GetByEmail(ctx, opts.AdminEmail)
	if err == nil {
		return false, nil
	}
	if !errors.IsType(err, errors.ErrorTypeNotFound) {
		return false, err
	}

	var adminRoleID *string
	for _, r := range roles {
		if rbac.IsAdminRole(r.Name) {
			id := r.ID
			adminRoleID = &id
		}
	}
	if adminRoleID == nil {
		return false, errors.ErrRoleNotFound
	}

	u, err := s.users.CreateUser(ctx, user.CreateUserRequest{
		Email:     opts.AdminEmail,
		Password:  opts.AdminPassword,
		FirstName: "School",
		LastName:  "Administrator",
		RoleID:    adminRoleID,
	})
	if err != nil {
		return false, err
	}
	s.logger.Info("admin user created", "user_id", u.ID)
	return true, nil
}

func values(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func lookup(ids map[string]string, names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if id, ok := ids[n]; ok {
			out = append(out, id)
		}
	}
	return out
}
