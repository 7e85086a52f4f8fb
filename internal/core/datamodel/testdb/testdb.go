// Package testdb opens an in-memory sqlite store with the full schema for
// repository and service tests.
package testdb

import (
	rbacDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/school-admin/internal/core/datamodel/user"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// every pooled connection to ":memory:" is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	models := append(rbacDatamodel.AllModels(), &userDatamodel.User{})
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the underlying connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SQLX wraps the same single connection for repositories written against sqlx.
func SQLX(db *gorm.DB) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(sqlDB, "sqlite3"), nil
}
