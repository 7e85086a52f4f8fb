package permission

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

// RepositoryAPI covers the permission catalog and the per-user override rows.
// Lookups return (nil, nil) when nothing matches.
type RepositoryAPI interface {
	ListPermissions(ctx context.Context) ([]*rbacDatamodel.Permission, error)
	GetPermissionByID(ctx context.Context, id string) (*rbacDatamodel.Permission, error)
	ExistingPermissionIDs(ctx context.Context, ids []string) ([]string, error)
	// EnsurePermission returns the row named p.Name, creating it from p when absent.
	EnsurePermission(ctx context.Context, p *rbacDatamodel.Permission) (*rbacDatamodel.Permission, error)
	// DeletePermission removes the permission with its role grants and user overrides.
	DeletePermission(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]*rbacDatamodel.PermissionCategory, error)
	EnsureCategory(ctx context.Context, c *rbacDatamodel.PermissionCategory) (*rbacDatamodel.PermissionCategory, error)

	OverridesForUser(ctx context.Context, userID string) ([]Override, error)
	// ReplaceOverrides swaps the user's override rows atomically.
	ReplaceOverrides(ctx context.Context, userID string, overrides []*rbacDatamodel.UserPermissionOverride) error
}

type AssignmentLoader interface {
	Assignment(ctx context.Context, userID string) (*rbac.Assignment, error)
}

type RolePermissionResolver interface {
	PermissionsForRole(ctx context.Context, roleID string) ([]role.Permission, error)
}

type Service struct {
	repo        RepositoryAPI
	assignments AssignmentLoader
	roles       RolePermissionResolver
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, assignments AssignmentLoader, roles RolePermissionResolver, publisher events.Publisher, logger *slog.Logger) *Service {
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

// EffectivePermissions is the role's permission set with the user's overrides
// applied. An unknown user is NotFound; a roleless user or one whose role is
// missing or inactive starts from an empty set.
func (s *Service) EffectivePermissions(ctx context.Context, userID string) (rbac.PermissionSet, error) {
	a, err := s.assignments.Assignment(ctx, userID)
	if err != nil {
		return nil, err
	}

	base, err := s.basePermissions(ctx, a)
	if err != nil {
		return nil, err
	}

	overrides, err := s.repo.OverridesForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load permission overrides", "user_id", userID, "error", err)
		return nil, errors.NewInternalError("failed to load permission overrides", err)
	}

	return Resolve(base, overrides), nil
}

func (s *Service) basePermissions(ctx context.Context, a *rbac.Assignment) ([]string, error) {
	if a.EffectiveRoleName() == "" {
		return nil, nil
	}
	perms, err := s.roles.PermissionsForRole(ctx, a.RoleID)
	if err != nil {
		return nil, err
	}
	return role.PermissionNames(perms), nil
}

func (s *Service) HasPermission(ctx context.Context, userID, name string) (bool, error) {
	set, err := s.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.Has(name), nil
}

func (s *Service) GetUserPermissionOverrides(ctx context.Context, userID string) ([]Override, error) {
	if _, err := s.assignments.Assignment(ctx, userID); err != nil {
		return nil, err
	}
	overrides, err := s.repo.OverridesForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load permission overrides", "user_id", userID, "error", err)
		return nil, errors.NewInternalError("failed to load permission overrides", err)
	}
	return overrides, nil
}

func (s *Service) GetUserPermissionView(ctx context.Context, userID string) (*UserPermissionView, error) {
	a, err := s.assignments.Assignment(ctx, userID)
	if err != nil {
		return nil, err
	}
	base, err := s.basePermissions(ctx, a)
	if err != nil {
		return nil, err
	}
	overrides, err := s.repo.OverridesForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load permission overrides", "user_id", userID, "error", err)
		return nil, errors.NewInternalError("failed to load permission overrides", err)
	}

	view := &UserPermissionView{
		UserID:          userID,
		RolePermissions: rbac.NewPermissionSet(base...).Names(),
		Overrides:       overrides,
		Effective:       Resolve(base, overrides).Names(),
	}
	if name := a.EffectiveRoleName(); name != "" {
		view.RoleID = a.RoleID
		view.RoleName = name
	}
	return view, nil
}

// SetUserPermissionOverrides replaces every override row of the user. The
// same list applied twice leaves the same state.
func (s *Service) SetUserPermissionOverrides(ctx context.Context, userID string, inputs []OverrideInput) ([]Override, error) {
	if inputs == nil {
		return nil, errors.NewValidationFieldError("overrides", "overrides is required", errors.ErrCodeValidationFailed)
	}
	if _, err := s.assignments.Assignment(ctx, userID); err != nil {
		return nil, err
	}

	byID := make(map[string]bool, len(inputs))
	ids := make([]string, 0, len(inputs))
	var conflicts []errors.ValidationError
	for _, in := range inputs {
		id := validation.CanonicalID(in.PermissionID)
		granted, seen := byID[id]
		if seen {
			if granted != in.IsGranted {
				conflicts = append(conflicts, errors.ValidationError{
					Field:   "overrides",
					Message: fmt.Sprintf("permission %s is both granted and revoked", id),
					Code:    string(errors.ErrCodeDuplicateOverride),
				})
			}
			continue
		}
		byID[id] = in.IsGranted
		ids = append(ids, id)
	}
	if len(conflicts) > 0 {
		return nil, errors.NewValidationError("Conflicting overrides", errors.ErrCodeDuplicateOverride).
			WithDetails(errors.ValidationErrors{Errors: conflicts})
	}

	wellFormed, invalid := validation.PartitionIDs(ids)
	if len(wellFormed) > 0 {
		existing, err := s.repo.ExistingPermissionIDs(ctx, wellFormed)
		if err != nil {
			s.logger.Error("failed to check permission ids", "user_id", userID, "error", err)
			return nil, errors.NewInternalError("failed to check permission ids", err)
		}
		invalid = append(invalid, validation.MissingIDs(wellFormed, existing)...)
	}
	if len(invalid) > 0 {
		s.logger.Warn("rejected override update", "user_id", userID, "invalid_ids", invalid)
		return nil, errors.NewInvalidIDsError("permissionId", invalid, errors.ErrCodeInvalidPermissionID)
	}

	rows := make([]*rbacDatamodel.UserPermissionOverride, 0, len(wellFormed))
	for _, id := range wellFormed {
		rows = append(rows, &rbacDatamodel.UserPermissionOverride{
			UserID:       userID,
			PermissionID: id,
			IsGranted:    byID[id],
		})
	}
	if err := s.repo.ReplaceOverrides(ctx, userID, rows); err != nil {
		s.logger.Error("failed to replace overrides", "user_id", userID, "error", err)
		return nil, errors.NewInternalError("failed to replace overrides", err)
	}

	s.publish(ctx, events.NewUserEvent(events.UserOverridesChanged, userID))
	s.logger.Info("permission overrides replaced", "user_id", userID, "count", len(rows))
	return s.GetUserPermissionOverrides(ctx, userID)
}

func (s *Service) ListPermissions(ctx context.Context) ([]*Permission, error) {
	dataPerms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		s.logger.Error("failed to list permissions", "error", err)
		return nil, errors.NewInternalError("failed to list permissions", err)
	}
	perms := make([]*Permission, 0, len(dataPerms))
	for _, p := range dataPerms {
		perms = append(perms, FromDataModel(p))
	}
	return perms, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	dataCats, err := s.repo.ListCategories(ctx)
	if err != nil {
		s.logger.Error("failed to list permission categories", "error", err)
		return nil, errors.NewInternalError("failed to list permission categories", err)
	}
	cats := make([]*Category, 0, len(dataCats))
	for _, c := range dataCats {
		cats = append(cats, CategoryFromDataModel(c))
	}
	return cats, nil
}

func (s *Service) EnsureCategory(ctx context.Context, def CategoryDefinition) (*Category, error) {
	if err := validation.ValidateMachineName(def.Name); err != nil {
		return nil, err
	}
	c, err := s.repo.EnsureCategory(ctx, &rbacDatamodel.PermissionCategory{
		Name:        def.Name,
		DisplayName: def.DisplayName,
		Description: def.Description,
		SortOrder:   def.SortOrder,
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to ensure permission category", err)
	}
	return CategoryFromDataModel(c), nil
}

// EnsurePermission reuses an existing row with the same name.
func (s *Service) EnsurePermission(ctx context.Context, def PermissionDefinition, categoryID *string) (*Permission, error) {
	if err := validation.ValidatePermissionName(def.Name); err != nil {
		return nil, err
	}
	p, err := s.repo.EnsurePermission(ctx, &rbacDatamodel.Permission{
		Name:        def.Name,
		DisplayName: def.DisplayName,
		Description: def.Description,
		CategoryID:  categoryID,
		IsActive:    true,
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to ensure permission", err)
	}
	return FromDataModel(p), nil
}

func (s *Service) DeletePermission(ctx context.Context, id string) error {
	p, err := s.repo.GetPermissionByID(ctx, id)
	if err != nil {
		return errors.NewInternalError("failed to get permission", err)
	}
	if p == nil {
		return errors.ErrPermissionNotFound
	}

	if err := s.repo.DeletePermission(ctx, id); err != nil {
		s.logger.Error("failed to delete permission", "permission_id", id, "error", err)
		return errors.NewInternalError("failed to delete permission", err)
	}

	s.publish(ctx, events.NewPermissionDeletedEvent(id))
	s.logger.Info("permission deleted", "permission_id", id, "name", p.Name)
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish permission event", "event_type", event.EventType(), "error", err)
	}
}
