package services

import (
	"errors"
	"time"

	"github.com/mathewgeejo/would-you-rather/internal/models"

	"gorm.io/gorm"
)

type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// SaveMessage persists a chat message before it is broadcast, so the
// room history is the source of truth and delivery stays best-effort.
func (s *ChatService) SaveMessage(questionID, userID uint, parentID *uint, text string) (*models.ChatMessage, error) {
	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	message := models.ChatMessage{
		QuestionID: questionID,
		UserID:     userID,
		ParentID:   parentID,
		Message:    text,
		CreatedAt:  time.Now(),
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Question{}).Where("id = ?", questionID).
			Update("comments_count", gorm.Expr("comments_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("User").First(&message, message.ID)
	return &message, nil
}

// History returns the most recent messages for a question, oldest first.
func (s *ChatService) History(questionID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var messages []models.ChatMessage
	err := s.db.Where("question_id = ?", questionID).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
