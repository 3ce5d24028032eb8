package services

import (
	"errors"

	"github.com/mathewgeejo/would-you-rather/internal/models"

	"gorm.io/gorm"
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

// Create stores a new question. User-authored submissions are approved
// immediately; AI drafts start pending until a moderator signs off.
func (s *QuestionService) Create(authorID uint, optionA, optionB, category string, isAIGenerated bool) (*models.Question, error) {
	status := models.QuestionStatusApproved
	if isAIGenerated {
		status = models.QuestionStatusPending
	}

	question := models.Question{
		AuthorID:      authorID,
		OptionA:       optionA,
		OptionB:       optionB,
		Category:      category,
		Status:        status,
		IsAIGenerated: isAIGenerated,
		IsActive:      true,
	}
	if err := s.db.Create(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// Get fetches a question and counts the view.
func (s *QuestionService) Get(questionID uint) (*models.Question, error) {
	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.db.Model(&models.Question{}).Where("id = ?", questionID).
		Update("views", gorm.Expr("views + 1"))
	question.Views++

	return &question, nil
}

// List returns approved, active questions, optionally filtered by category.
func (s *QuestionService) List(category string, limit, offset int) ([]models.Question, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := s.db.Where("status = ? AND is_active = ?", models.QuestionStatusApproved, true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var questions []models.Question
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&questions).Error
	return questions, err
}

// ListPending returns questions awaiting moderation. Admin surface.
func (s *QuestionService) ListPending() ([]models.Question, error) {
	var questions []models.Question
	err := s.db.Where("status = ?", models.QuestionStatusPending).
		Order("created_at ASC").Find(&questions).Error
	return questions, err
}

// Flag records a report against a question. Each user counts once; when
// the distinct-flag count reaches the threshold an approved question
// goes back to pending review.
func (s *QuestionService) Flag(questionID, userID uint, reason string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		question, err := lockQuestion(tx, questionID)
		if err != nil {
			return err
		}

		flag := models.QuestionFlag{QuestionID: questionID, UserID: userID, Reason: reason}
		if err := tx.Create(&flag).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyFlagged
			}
			return err
		}

		var flags int64
		if err := tx.Model(&models.QuestionFlag{}).
			Where("question_id = ?", questionID).Count(&flags).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"flag_count": flags}
		if flags >= models.FlagReviewThreshold && question.Status == models.QuestionStatusApproved {
			updates["status"] = models.QuestionStatusPending
		}
		return tx.Model(&models.Question{}).Where("id = ?", questionID).Updates(updates).Error
	})
}

// Moderate applies an admin approve/reject decision.
func (s *QuestionService) Moderate(questionID uint, approve bool) (*models.Question, error) {
	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	status := models.QuestionStatusRejected
	if approve {
		status = models.QuestionStatusApproved
	}
	if err := s.db.Model(&question).Update("status", status).Error; err != nil {
		return nil, err
	}
	question.Status = status
	return &question, nil
}

// Delete removes a question with its votes, flags and chat. Admin surface.
func (s *QuestionService) Delete(questionID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Question{}, questionID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("question_id = ?", questionID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", questionID).Delete(&models.QuestionFlag{}).Error; err != nil {
			return err
		}
		return tx.Where("question_id = ?", questionID).Delete(&models.ChatMessage{}).Error
	})
}

// IncrementShares counts a share action.
func (s *QuestionService) IncrementShares(questionID uint) error {
	result := s.db.Model(&models.Question{}).Where("id = ?", questionID).
		Update("shares", gorm.Expr("shares + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
