package services

import (
	"errors"
	"time"

	"github.com/mathewgeejo/would-you-rather/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	VotePoints       = 10
	QuestionPoints   = 50
	AIQuestionPoints = 25
)

type ProgressionService struct {
	db *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{db: db}
}

// AwardVotePoints grants the fixed vote reward and reports a level-up.
// The row lock keeps concurrent awards for the same user from losing
// an increment.
func (s *ProgressionService) AwardVotePoints(userID uint) (bool, int, error) {
	return s.award(userID, VotePoints, func(user *models.User) {
		user.VotesCount++
	})
}

// AwardQuestionPoints grants the question-creation reward. AI-assisted
// questions earn half the points of a user-authored one.
func (s *ProgressionService) AwardQuestionPoints(userID uint, isAIGenerated bool) (bool, int, error) {
	points := QuestionPoints
	if isAIGenerated {
		points = AIQuestionPoints
	}
	return s.award(userID, points, func(user *models.User) {
		user.QuestionsCreated++
	})
}

func (s *ProgressionService) award(userID uint, points int, mutate func(*models.User)) (bool, int, error) {
	leveledUp := false
	newLevel := 0

	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}

		oldLevel := user.Level
		user.Points += points
		user.Experience += points
		user.Level = models.LevelForExperience(user.Experience)
		if mutate != nil {
			mutate(user)
		}

		leveledUp = user.Level > oldLevel
		newLevel = user.Level

		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"points":            user.Points,
			"experience":        user.Experience,
			"level":             user.Level,
			"votes_count":       user.VotesCount,
			"questions_created": user.QuestionsCreated,
		}).Error
	})
	return leveledUp, newLevel, err
}

// removeVoteAward reverses AwardVotePoints inside an existing transaction.
// Used by vote moderation.
func (s *ProgressionService) removeVoteAward(tx *gorm.DB, userID uint) error {
	user, err := lockUser(tx, userID)
	if err != nil {
		return err
	}

	user.Points -= VotePoints
	if user.Points < 0 {
		user.Points = 0
	}
	user.Experience -= VotePoints
	if user.Experience < 0 {
		user.Experience = 0
	}
	user.VotesCount--
	if user.VotesCount < 0 {
		user.VotesCount = 0
	}
	user.Level = models.LevelForExperience(user.Experience)

	return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"points":      user.Points,
		"experience":  user.Experience,
		"level":       user.Level,
		"votes_count": user.VotesCount,
	}).Error
}

// UpdateStreak advances the consecutive-day activity counter. Gaps are
// measured in calendar days, not wall-clock 24h periods: same-day
// activity keeps the streak, a one-day gap extends it, anything longer
// resets it to 1.
func (s *ProgressionService) UpdateStreak(userID uint) (int, error) {
	streak := 0
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}

		switch gap := calendarDayGap(user.LastActivity, now); {
		case user.LastActivity == nil || gap > 1:
			user.CurrentStreak = 1
		case gap == 1:
			user.CurrentStreak++
		default:
			// Same calendar day, streak unchanged.
		}
		if user.CurrentStreak > user.LongestStreak {
			user.LongestStreak = user.CurrentStreak
		}
		streak = user.CurrentStreak

		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"current_streak": user.CurrentStreak,
			"longest_streak": user.LongestStreak,
			"last_activity":  now,
		}).Error
	})
	return streak, err
}

func calendarDayGap(last *time.Time, now time.Time) int {
	if last == nil {
		return -1
	}
	y1, m1, d1 := last.Local().Date()
	y2, m2, d2 := now.Local().Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func lockUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
