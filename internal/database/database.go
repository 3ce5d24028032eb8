package database

import (
	"fmt"

	"github.com/mathewgeejo/would-you-rather/internal/config"
	"github.com/mathewgeejo/would-you-rather/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	// TranslateError lets unique-index violations surface as
	// gorm.ErrDuplicatedKey, which the services map to domain conflicts.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}

	logrus.Info("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.QuestionFlag{},
		&models.Vote{},
		&models.Badge{},
		&models.UserBadge{},
		&models.ChatMessage{},
	)
	if err != nil {
		logrus.Fatalf("failed to auto-migrate: %v", err)
	}
	logrus.Info("database migrated")
}
