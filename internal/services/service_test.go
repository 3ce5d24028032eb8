package services

import (
	"fmt"
	"testing"

	"github.com/mathewgeejo/would-you-rather/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database per test. cache=shared
// keeps the schema visible across the pool's connections.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.QuestionFlag{},
		&models.Vote{},
		&models.Badge{},
		&models.UserBadge{},
		&models.ChatMessage{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
		Level:        1,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestQuestion(t *testing.T, db *gorm.DB, authorID uint) *models.Question {
	t.Helper()

	question := models.Question{
		AuthorID: authorID,
		OptionA:  "Live without music",
		OptionB:  "Live without movies",
		Category: "lifestyle",
		Status:   models.QuestionStatusApproved,
		IsActive: true,
	}
	require.NoError(t, db.Create(&question).Error)
	return &question
}

func newTestVoteService(db *gorm.DB) *VoteService {
	progression := NewProgressionService(db)
	badges := NewBadgeService(db)
	return NewVoteService(db, progression, badges)
}
