package user

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/school-admin/internal"
	userDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/school-admin/internal/core/events"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
	"github.com/frahmantamala/school-admin/internal/role"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// RepositoryAPI is the user store. Lookups return (nil, nil) when nothing matches.
type RepositoryAPI interface {
	GetByID(ctx context.Context, id string) (*userDatamodel.UserWithRole, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.UserWithRole, error)
	List(ctx context.Context, limit, offset int) ([]*userDatamodel.UserWithRole, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	UpdateRole(ctx context.Context, userID string, roleID *string) error
}

type RoleLookup interface {
	GetRole(ctx context.Context, id string) (*role.Role, error)
}

type Service struct {
	repo       RepositoryAPI
	roles      RoleLookup
	publisher  events.Publisher
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, roles RoleLookup, publisher events.Publisher, bcryptCost int, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		roles:      roles,
		publisher:  publisher,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user", "user_id", id, "error", err)
		return nil, errors.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, errors.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

// GetByEmail includes the password hash; only the login path should call it.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	row, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		s.logger.Error("failed to get user by email", "error", err)
		return nil, errors.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, errors.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

// Assignment reloads the user's role from the store.
func (s *Service) Assignment(ctx context.Context, userID string) (*rbac.Assignment, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	a := u.Assignment()
	return &a, nil
}

// NormalizePage clamps paging parameters to the supported window.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, error) {
	limit, offset = NormalizePage(limit, offset)

	rows, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, errors.NewInternalError("failed to list users", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

// CreateUserAs creates a user on behalf of actor. Only an admin may give the
// new account a role; anyone else creates it roleless.
func (s *Service) CreateUserAs(ctx context.Context, actor rbac.Principal, req CreateUserRequest) (*User, error) {
	if req.RoleID != nil && !actor.IsAdmin() {
		s.logger.Warn("refused role on user creation", "actor_id", actor.UserID, "actor_role", actor.RoleName, "role_id", *req.RoleID)
		return nil, errors.ErrRoleRequired
	}
	return s.CreateUser(ctx, req)
}

// CreateUser creates a user without an actor check. Callers own the decision
// to set RoleID.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.NewInternalError("failed to check email", err)
	}
	if existing != nil {
		return nil, errors.ErrEmailConflict
	}

	if req.RoleID != nil {
		if err := s.ensureAssignable(ctx, *req.RoleID); err != nil {
			return nil, err
		}
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	data := &userDatamodel.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		RoleID:       req.RoleID,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, data); err != nil {
		s.logger.Error("failed to create user", "error", err)
		return nil, errors.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", data.ID)
	return s.GetByID(ctx, data.ID)
}

// AssignRole sets or, with a nil roleID, clears the user's single role.
func (s *Service) AssignRole(ctx context.Context, userID string, roleID *string) (*User, error) {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if roleID != nil {
		if err := s.ensureAssignable(ctx, *roleID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateRole(ctx, userID, roleID); err != nil {
		s.logger.Error("failed to assign role", "user_id", userID, "error", err)
		return nil, errors.NewInternalError("failed to assign role", err)
	}

	if err := s.publisher.PublishSync(ctx, events.NewUserEvent(events.UserRoleChanged, userID)); err != nil {
		s.logger.Error("failed to publish user role event", "user_id", userID, "error", err)
	}
	s.logger.Info("user role assigned", "user_id", userID, "role_id", roleID)
	return s.GetByID(ctx, userID)
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) ensureAssignable(ctx context.Context, roleID string) error {
	r, err := s.roles.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if !r.IsActive {
		return errors.ErrRoleInactive
	}
	return nil
}
