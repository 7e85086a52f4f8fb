package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"primaryKey;type:uuid" db:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" db:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" db:"password_hash"`
	FirstName    string    `gorm:"column:first_name;not null" db:"first_name"`
	LastName     string    `gorm:"column:last_name;not null" db:"last_name"`
	RoleID       *string   `gorm:"column:role_id;type:uuid;index" db:"role_id"`
	IsActive     bool      `gorm:"column:is_active;not null" db:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" db:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" db:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserWithRole is a user row left-joined to its role. Both role columns are
// NULL when the user is roleless or the role row is gone.
type UserWithRole struct {
	User
	RoleName   *string `db:"role_name"`
	RoleActive *bool   `db:"role_active"`
}
