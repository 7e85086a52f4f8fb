package page

import (
	"context"
	"fmt"
	"log/slog"

	errors "github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/core/common/validation"
	rbacDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/rbac"
	"github.com/frahmantamala/school-admin/internal/core/events"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
	"github.com/frahmantamala/school-admin/internal/role"
)

// RepositoryAPI covers pages and role page grants. Lookups return (nil, nil)
// when nothing matches.
type RepositoryAPI interface {
	ListPages(ctx context.Context) ([]*rbacDatamodel.Page, error)
	GetPageByID(ctx context.Context, id string) (*rbacDatamodel.Page, error)
	ActivePageNames(ctx context.Context) ([]string, error)
	ExistingPageIDs(ctx context.Context, ids []string) ([]string, error)
	EnsurePage(ctx context.Context, p *rbacDatamodel.Page) (*rbacDatamodel.Page, error)
	// DeletePage removes the page with every role grant for it.
	DeletePage(ctx context.Context, id string) error

	// AllowedPageNames lists active pages the role has can_access=true for.
	AllowedPageNames(ctx context.Context, roleID string) ([]string, error)
	HasPageAccess(ctx context.Context, roleID, pageName string) (bool, error)
	RolePageAccess(ctx context.Context, roleID string) ([]RolePageAccess, error)
	// UpsertRolePages writes each row, updating can_access where a row for
	// (role, page) exists already. All rows commit together.
	UpsertRolePages(ctx context.Context, rows []*rbacDatamodel.RolePagePermission) error
}

type AssignmentLoader interface {
	Assignment(ctx context.Context, userID string) (*rbac.Assignment, error)
}

type RoleLookup interface {
	GetRole(ctx context.Context, id string) (*role.Role, error)
}

type Service struct {
	repo        RepositoryAPI
	assignments AssignmentLoader
	roles       RoleLookup
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, assignments AssignmentLoader, roles RoleLookup, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:        repo,
		assignments: assignments,
		roles:       roles,
		publisher:   publisher,
		logger:      logger,
	}
}

// AllowedPages returns the page names the user may open. Admin gets every
// active page without reading role grants; a roleless user gets none.
func (s *Service) AllowedPages(ctx context.Context, userID string) ([]string, error) {
	a, err := s.assignments.Assignment(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.allowedForRole(ctx, a.RoleID, a.EffectiveRoleName())
}

func (s *Service) HasPagePermission(ctx context.Context, userID, pageName string) (bool, error) {
	a, err := s.assignments.Assignment(ctx, userID)
	if err != nil {
		return false, err
	}
	if a.IsAdmin() {
		return true, nil
	}
	if a.EffectiveRoleName() == "" {
		return false, nil
	}

	ok, err := s.repo.HasPageAccess(ctx, a.RoleID, pageName)
	if err != nil {
		s.logger.Error("failed to check page access", "user_id", userID, "page", pageName, "error", err)
		return false, errors.NewInternalError("failed to check page access", err)
	}
	return ok, nil
}

// AllowedPagesForRole resolves pages the way AllowedPages does for a user
// holding roleID.
func (s *Service) AllowedPagesForRole(ctx context.Context, roleID string) ([]string, error) {
	r, err := s.roles.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	name := ""
	if r.IsActive {
		name = r.Name
	}
	return s.allowedForRole(ctx, r.ID, name)
}

func (s *Service) allowedForRole(ctx context.Context, roleID, effectiveName string) ([]string, error) {
	var (
		names []string
		err   error
	)
	switch {
	case effectiveName == "":
		return []string{}, nil
	case rbac.IsAdminRole(effectiveName):
		names, err = s.repo.ActivePageNames(ctx)
	default:
		names, err = s.repo.AllowedPageNames(ctx, roleID)
	}
	if err != nil {
		s.logger.Error("failed to resolve allowed pages", "role_id", roleID, "error", err)
		return nil, errors.NewInternalError("failed to resolve allowed pages", err)
	}
	return names, nil
}

func (s *Service) GetRolePagePermissions(ctx context.Context, roleID string) ([]RolePageAccess, error) {
	if _, err := s.roles.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	access, err := s.repo.RolePageAccess(ctx, roleID)
	if err != nil {
		s.logger.Error("failed to load role pages", "role_id", roleID, "error", err)
		return nil, errors.NewInternalError("failed to load role pages", err)
	}
	return access, nil
}

// SetRolePagePermissions upserts one grant per entry. Pages left out of
// inputs keep whatever value they had.
func (s *Service) SetRolePagePermissions(ctx context.Context, roleID string, inputs []PagePermissionInput) ([]RolePageAccess, error) {
	if inputs == nil {
		return nil, errors.NewValidationFieldError("pagePermissions", "pagePermissions is required", errors.ErrCodeValidationFailed)
	}
	if _, err := s.roles.GetRole(ctx, roleID); err != nil {
		return nil, err
	}

	byID := make(map[string]bool, len(inputs))
	ids := make([]string, 0, len(inputs))
	var conflicts []errors.ValidationError
	for _, in := range inputs {
		id := validation.CanonicalID(in.PageID)
		canAccess, seen := byID[id]
		if seen {
			if canAccess != in.CanAccess {
				conflicts = append(conflicts, errors.ValidationError{
					Field:   "pagePermissions",
					Message: fmt.Sprintf("page %s is both allowed and denied", id),
					Code:    string(errors.ErrCodeValidationFailed),
				})
			}
			continue
		}
		byID[id] = in.CanAccess
		ids = append(ids, id)
	}
	if len(conflicts) > 0 {
		return nil, errors.NewValidationError("Conflicting page permissions", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: conflicts})
	}

	wellFormed, invalid := validation.PartitionIDs(ids)
	if len(wellFormed) > 0 {
		existing, err := s.repo.ExistingPageIDs(ctx, wellFormed)
		if err != nil {
			s.logger.Error("failed to check page ids", "role_id", roleID, "error", err)
			return nil, errors.NewInternalError("failed to check page ids", err)
		}
		invalid = append(invalid, validation.MissingIDs(wellFormed, existing)...)
	}
	if len(invalid) > 0 {
		s.logger.Warn("rejected role page update", "role_id", roleID, "invalid_ids", invalid)
		return nil, errors.NewInvalidIDsError("pageId", invalid, errors.ErrCodeInvalidPageID)
	}

	rows := make([]*rbacDatamodel.RolePagePermission, 0, len(wellFormed))
	for _, id := range wellFormed {
		rows = append(rows, &rbacDatamodel.RolePagePermission{
			RoleID:    roleID,
			PageID:    id,
			CanAccess: byID[id],
		})
	}
	if len(rows) > 0 {
		if err := s.repo.UpsertRolePages(ctx, rows); err != nil {
			s.logger.Error("failed to upsert role pages", "role_id", roleID, "error", err)
			return nil, errors.NewInternalError("failed to update role pages", err)
		}
		s.publish(ctx, events.NewRoleEvent(events.RolePagesChanged, roleID))
	}

	s.logger.Info("role pages updated", "role_id", roleID, "count", len(rows))
	return s.GetRolePagePermissions(ctx, roleID)
}

func (s *Service) ListPages(ctx context.Context) ([]*Page, error) {
	dataPages, err := s.repo.ListPages(ctx)
	if err != nil {
		s.logger.Error("failed to list pages", "error", err)
		return nil, errors.NewInternalError("failed to list pages", err)
	}
	pages := make([]*Page, 0, len(dataPages))
	for _, p := range dataPages {
		pages = append(pages, FromDataModel(p))
	}
	return pages, nil
}

// EnsurePage reuses an existing row with the same name.
func (s *Service) EnsurePage(ctx context.Context, def PageDefinition) (*Page, error) {
	if err := validation.ValidatePageName(def.Name); err != nil {
		return nil, err
	}
	route := def.Route
	if route == "" {
		route = "/" + def.Name
	}
	p, err := s.repo.EnsurePage(ctx, &rbacDatamodel.Page{
		Name:        def.Name,
		DisplayName: def.DisplayName,
		Route:       route,
		SortOrder:   def.SortOrder,
		IsActive:    true,
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to ensure page", err)
	}
	return FromDataModel(p), nil
}

func (s *Service) DeletePage(ctx context.Context, id string) error {
	p, err := s.repo.GetPageByID(ctx, id)
	if err != nil {
		return errors.NewInternalError("failed to get page", err)
	}
	if p == nil {
		return errors.ErrPageNotFound
	}

	if err := s.repo.DeletePage(ctx, id); err != nil {
		s.logger.Error("failed to delete page", "page_id", id, "error", err)
		return errors.NewInternalError("failed to delete page", err)
	}

	s.publish(ctx, events.NewPageDeletedEvent(id))
	s.logger.Info("page deleted", "page_id", id, "name", p.Name)
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish page event", "event_type", event.EventType(), "error", err)
	}
}
