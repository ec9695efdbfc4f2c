package database

import (
	"github.com/Payphone-Digital/locatory/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all relational models
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}); err != nil {
		return err
	}
	return EnsurePostgresIndexes(db)
}
