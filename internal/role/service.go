package role

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/core/common/validation"
	rbacDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/rbac"
	"github.com/frahmantamala/school-admin/internal/core/events"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
)

// RepositoryAPI is the role store. Lookups return (nil, nil) when nothing matches.
type RepositoryAPI interface {
	List(ctx context.Context) ([]*rbacDatamodel.Role, error)
	GetByID(ctx context.Context, id string) (*rbacDatamodel.Role, error)
	GetByName(ctx context.Context, name string) (*rbacDatamodel.Role, error)
	Create(ctx context.Context, role *rbacDatamodel.Role) error
	Update(ctx context.Context, role *rbacDatamodel.Role) error
	// Delete removes the role with its permission and page grants and leaves
	// its users roleless, all in one transaction.
	Delete(ctx context.Context, id string) error

	PermissionsForRole(ctx context.Context, roleID string) ([]*rbacDatamodel.Permission, error)
	PermissionsForRoleName(ctx context.Context, name string) ([]*rbacDatamodel.Permission, error)
	ExistingPermissionIDs(ctx context.Context, ids []string) ([]string, error)
	// ReplacePermissions swaps the role's grants for permissionIDs atomically.
	ReplacePermissions(ctx context.Context, roleID string, permissionIDs []string) error
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	dataRoles, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, errors.NewInternalError("failed to list roles", err)
	}

	roles := make([]*Role, 0, len(dataRoles))
	for _, r := range dataRoles {
		roles = append(roles, FromDataModel(r))
	}
	return roles, nil
}

func (s *Service) GetRole(ctx context.Context, id string) (*Role, error) {
	dataRole, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get role", "role_id", id, "error", err)
		return nil, errors.NewInternalError("failed to get role", err)
	}
	if dataRole == nil {
		return nil, errors.ErrRoleNotFound
	}
	return FromDataModel(dataRole), nil
}

func (s *Service) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	dataRole, err := s.repo.GetByName(ctx, rbac.NormalizeRoleName(name))
	if err != nil {
		s.logger.Error("failed to get role by name", "name", name, "error", err)
		return nil, errors.NewInternalError("failed to get role", err)
	}
	if dataRole == nil {
		return nil, errors.ErrRoleNotFound
	}
	return FromDataModel(dataRole), nil
}

func (s *Service) CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	name := rbac.NormalizeRoleName(req.Name)
	if err := validation.ValidateRoleName(name); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureNameAvailable(ctx, name, ""); err != nil {
		return nil, err
	}

	r := NewCustomRole(name, req.DisplayName, req.Description)
	data := ToDataModel(r)
	if err := s.repo.Create(ctx, data); err != nil {
		s.logger.Error("failed to create role", "name", name, "error", err)
		return nil, errors.NewInternalError("failed to create role", err)
	}

	s.logger.Info("role created", "role_id", data.ID, "name", name)
	return FromDataModel(data), nil
}

func (s *Service) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*Role, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	data, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get role", "role_id", id, "error", err)
		return nil, errors.NewInternalError("failed to get role", err)
	}
	if data == nil {
		return nil, errors.ErrRoleNotFound
	}

	if req.Name != nil {
		name := rbac.NormalizeRoleName(*req.Name)
		if name != data.Name {
			if data.IsSystemRole {
				return nil, errors.ErrSystemRoleImmutable
			}
			if err := validation.ValidateRoleName(name); err != nil {
				return nil, err
			}
			if err := s.ensureNameAvailable(ctx, name, data.ID); err != nil {
				return nil, err
			}
			data.Name = name
		}
	}
	if req.IsActive != nil && *req.IsActive != data.IsActive {
		if data.IsSystemRole && !*req.IsActive {
			return nil, errors.ErrSystemRoleImmutable
		}
		data.IsActive = *req.IsActive
	}
	if req.DisplayName != nil {
		data.DisplayName = *req.DisplayName
	}
	if req.Description != nil {
		data.Description = *req.Description
	}

	if err := s.repo.Update(ctx, data); err != nil {
		s.logger.Error("failed to update role", "role_id", id, "error", err)
		return nil, errors.NewInternalError("failed to update role", err)
	}

	s.publish(ctx, events.NewRoleEvent(events.RoleChanged, data.ID))
	s.logger.Info("role updated", "role_id", data.ID, "name", data.Name, "is_active", data.IsActive)
	return FromDataModel(data), nil
}

// DeleteRole refuses system and non-deletable roles no matter who asks.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	r, err := s.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if !r.CanDelete() {
		s.logger.Warn("refused to delete protected role", "role_id", id, "name", r.Name)
		return errors.ErrSystemRoleImmutable
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete role", "role_id", id, "error", err)
		return errors.NewInternalError("failed to delete role", err)
	}

	s.publish(ctx, events.NewRoleEvent(events.RoleDeleted, id))
	s.logger.Info("role deleted", "role_id", id, "name", r.Name)
	return nil
}

// PermissionsForRole returns the active permissions granted to the role. An
// unknown role or one without grants yields an empty list.
func (s *Service) PermissionsForRole(ctx context.Context, roleID string) ([]Permission, error) {
	dataPerms, err := s.repo.PermissionsForRole(ctx, roleID)
	if err != nil {
		s.logger.Error("failed to resolve role permissions", "role_id", roleID, "error", err)
		return nil, errors.NewInternalError("failed to resolve role permissions", err)
	}
	return toPermissions(dataPerms), nil
}

func (s *Service) PermissionsForRoleName(ctx context.Context, name string) ([]Permission, error) {
	dataPerms, err := s.repo.PermissionsForRoleName(ctx, rbac.NormalizeRoleName(name))
	if err != nil {
		s.logger.Error("failed to resolve role permissions", "role_name", name, "error", err)
		return nil, errors.NewInternalError("failed to resolve role permissions", err)
	}
	return toPermissions(dataPerms), nil
}

// SetRolePermissions replaces the role's grants with exactly permissionIDs.
// Every id is checked before anything is written; unknown ids are all
// reported together.
func (s *Service) SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) ([]Permission, error) {
	if permissionIDs == nil {
		return nil, errors.NewValidationFieldError("permissionIds", "permissionIds is required", errors.ErrCodeValidationFailed)
	}
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return nil, err
	}

	ids, malformed := validation.PartitionIDs(permissionIDs)
	invalid := malformed
	if len(ids) > 0 {
		existing, err := s.repo.ExistingPermissionIDs(ctx, ids)
		if err != nil {
			s.logger.Error("failed to check permission ids", "role_id", roleID, "error", err)
			return nil, errors.NewInternalError("failed to check permission ids", err)
		}
		invalid = append(invalid, validation.MissingIDs(ids, existing)...)
	}
	if len(invalid) > 0 {
		s.logger.Warn("rejected role permission update", "role_id", roleID, "invalid_ids", invalid)
		return nil, errors.NewInvalidIDsError("permissionIds", invalid, errors.ErrCodeInvalidPermissionID)
	}

	if err := s.repo.ReplacePermissions(ctx, roleID, ids); err != nil {
		s.logger.Error("failed to replace role permissions", "role_id", roleID, "error", err)
		return nil, errors.NewInternalError("failed to replace role permissions", err)
	}

	s.publish(ctx, events.NewRoleEvent(events.RolePermissionsChanged, roleID))
	s.logger.Info("role permissions replaced", "role_id", roleID, "count", len(ids))
	return s.PermissionsForRole(ctx, roleID)
}

// EnsureSystemRoles creates the four reserved roles when missing and restores
// their protection flags when present.
func (s *Service) EnsureSystemRoles(ctx context.Context) ([]*Role, error) {
	roles := make([]*Role, 0, len(systemRoleDefinitions))
	for _, def := range systemRoleDefinitions {
		data, err := s.repo.GetByName(ctx, def.Name)
		if err != nil {
			return nil, errors.NewInternalError("failed to load system role", err)
		}

		if data == nil {
			data = &rbacDatamodel.Role{
				Name:         def.Name,
				DisplayName:  def.DisplayName,
				Description:  def.Description,
				IsSystemRole: true,
				IsDeletable:  false,
				IsActive:     true,
			}
			if err := s.repo.Create(ctx, data); err != nil {
				return nil, errors.NewInternalError("failed to create system role", err)
			}
			s.logger.Info("system role created", "name", def.Name, "role_id", data.ID)
		} else if !data.IsSystemRole || data.IsDeletable || !data.IsActive {
			data.IsSystemRole = true
			data.IsDeletable = false
			data.IsActive = true
			if err := s.repo.Update(ctx, data); err != nil {
				return nil, errors.NewInternalError("failed to update system role", err)
			}
			s.publish(ctx, events.NewRoleEvent(events.RoleChanged, data.ID))
		}

		roles = append(roles, FromDataModel(data))
	}
	return roles, nil
}

func (s *Service) ensureNameAvailable(ctx context.Context, name, selfID string) error {
	if rbac.IsReservedRoleName(name) {
		return errors.ErrRoleNameConflict
	}
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return errors.NewInternalError("failed to check role name", err)
	}
	if existing != nil && existing.ID != selfID {
		return errors.ErrRoleNameConflict
	}
	return nil
}

// publish runs after commit; a failed subscriber is logged, the write stands.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish role event", "event_type", event.EventType(), "error", err)
	}
}

func toPermissions(dataPerms []*rbacDatamodel.Permission) []Permission {
	perms := make([]Permission, 0, len(dataPerms))
	for _, p := range dataPerms {
		perms = append(perms, PermissionFromDataModel(p))
	}
	return perms
}
