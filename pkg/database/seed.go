package database

import (
	"errors"
	"os"

	"github.com/Payphone-Digital/locatory/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultAdmin defines the default admin user credentials
type DefaultAdmin struct {
	Name     string
	Email    string
	Password string
}

// GetDefaultAdmin reads ADMIN_EMAIL and ADMIN_PASSWORD, falling back to
// development values.
func GetDefaultAdmin() DefaultAdmin {
	admin := DefaultAdmin{
		Name:     "Admin",
		Email:    "admin@locatory.local",
		Password: "Admin@123",
	}
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		admin.Email = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		admin.Password = v
	}
	return admin
}

// Seed creates initial data for the database
func Seed(db *gorm.DB) error {
	return SeedAdmin(db, GetDefaultAdmin())
}

// SeedAdmin creates the admin user if no user has its email.
func SeedAdmin(db *gorm.DB, admin DefaultAdmin) error {
	var existing model.User
	err := db.Where("email = ?", admin.Email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := model.User{
		Name:         admin.Name,
		Email:        admin.Email,
		Password:     string(hashedPassword),
		Role:         "admin",
		TokenVersion: 1,
	}
	return db.Create(&user).Error
}
