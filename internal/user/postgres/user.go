package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/frahmantamala/school-admin/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/school-admin/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const selectUserWithRole = `
SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.role_id,
       u.is_active, u.created_at, u.updated_at,
       r.name AS role_name, r.is_active AS role_active
FROM users u
LEFT JOIN roles r ON r.id = u.role_id`

const insertUser = `
INSERT INTO users (id, email, password_hash, first_name, last_name, role_id, is_active, created_at, updated_at)
VALUES (:id, :email, :password_hash, :first_name, :last_name, :role_id, :is_active, :created_at, :updated_at)`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*userDatamodel.UserWithRole, error) {
	if !validation.IsUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, selectUserWithRole+" WHERE u.id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.UserWithRole, error) {
	return r.getOne(ctx, selectUserWithRole+" WHERE u.email = ?", email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*userDatamodel.UserWithRole, error) {
	var row userDatamodel.UserWithRole
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*userDatamodel.UserWithRole, error) {
	rows := []*userDatamodel.UserWithRole{}
	query := r.db.Rebind(selectUserWithRole + " ORDER BY u.email ASC LIMIT ? OFFSET ?")
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, insertUser, u)
	return err
}

func (r *UserRepository) UpdateRole(ctx context.Context, userID string, roleID *string) error {
	query := r.db.Rebind("UPDATE users SET role_id = ?, updated_at = ? WHERE id = ?")
	_, err := r.db.ExecContext(ctx, query, roleID, time.Now().UTC(), userID)
	return err
}
