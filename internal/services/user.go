package services

import (
	"errors"

	"github.com/mathewgeejo/would-you-rather/internal/models"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Get returns a user with their earned badges preloaded.
func (s *UserService) Get(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Badges.Badge").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// PublicProfile strips the fields other users should not see.
func (s *UserService) PublicProfile(userID uint) (*PublicProfile, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrNotFound
	}

	badges := make([]models.Badge, 0, len(user.Badges))
	for _, ub := range user.Badges {
		badges = append(badges, ub.Badge)
	}

	return &PublicProfile{
		ID:               user.ID,
		Username:         user.Username,
		Avatar:           user.Avatar,
		Bio:              user.Bio,
		Points:           user.Points,
		Level:            user.Level,
		CurrentStreak:    user.CurrentStreak,
		LongestStreak:    user.LongestStreak,
		VotesCount:       user.VotesCount,
		QuestionsCreated: user.QuestionsCreated,
		Badges:           badges,
	}, nil
}

// Deactivate soft-disables an account; stats rows are kept.
func (s *UserService) Deactivate(userID uint) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type PublicProfile struct {
	ID               uint           `json:"id"`
	Username         string         `json:"username"`
	Avatar           string         `json:"avatar,omitempty"`
	Bio              string         `json:"bio,omitempty"`
	Points           int            `json:"points"`
	Level            int            `json:"level"`
	CurrentStreak    int            `json:"current_streak"`
	LongestStreak    int            `json:"longest_streak"`
	VotesCount       int            `json:"votes_count"`
	QuestionsCreated int            `json:"questions_created"`
	Badges           []models.Badge `json:"badges"`
}
