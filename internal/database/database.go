package database

import (
	"fmt"

	"github.com/filedepot/backend/internal/config"
	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	// TranslateError turns driver-specific unique violations into
	// gorm.ErrDuplicatedKey, which the catalog relies on for dedup.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := seedAdminUser(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.File{},
		&models.Category{},
		&models.Tag{},
		&models.FileCategory{},
		&models.FileTag{},
		&models.FileVersion{},
		&models.Like{},
		&models.Favorite{},
		&models.AccessLog{},
	)
}

func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        "admin@filedepot.local",
		PasswordHash: hash,
		DisplayName:  "System Admin",
		Role:         models.UserRoleAdmin,
	}

	return db.Create(&admin).Error
}
