package services

import (
	"errors"
	"time"

	"github.com/mathewgeejo/would-you-rather/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	TriggerVote     = "vote"
	TriggerQuestion = "question_created"
	TriggerMessage  = "message"
)

type BadgeService struct {
	db *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{db: db}
}

// EvaluateAndAward checks every active badge the user does not hold yet
// and awards the ones whose requirement is satisfied. Returns the newly
// earned badges for notification. A badge with an unknown requirement
// type is skipped, never fatal for the pass.
func (s *BadgeService) EvaluateAndAward(userID uint, trigger string) ([]models.Badge, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	held, err := s.heldBadgeIDs(userID)
	if err != nil {
		return nil, err
	}

	var badges []models.Badge
	if err := s.db.Where("is_active = ?", true).Find(&badges).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	var earned []models.Badge
	for _, badge := range badges {
		if held[badge.ID] {
			continue
		}
		if !s.unlockable(&badge, held, now) {
			continue
		}

		qualified, err := s.qualifies(&user, &badge, now)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"badge_id": badge.ID,
				"user_id":  userID,
			}).WithError(err).Warn("badge requirement evaluation failed, skipping")
			continue
		}
		if !qualified {
			continue
		}

		awarded, err := s.award(userID, &badge, now)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"badge_id": badge.ID,
				"user_id":  userID,
			}).WithError(err).Error("badge award failed")
			continue
		}
		if awarded {
			held[badge.ID] = true
			earned = append(earned, badge)
		}
	}

	if len(earned) > 0 {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"trigger": trigger,
			"count":   len(earned),
		}).Info("badges awarded")
	}
	return earned, nil
}

// UserBadges lists a user's earned badges, newest first.
func (s *BadgeService) UserBadges(userID uint) ([]models.UserBadge, error) {
	var earned []models.UserBadge
	err := s.db.Where("user_id = ?", userID).
		Preload("Badge").
		Order("earned_at DESC").
		Find(&earned).Error
	return earned, err
}

// CreateBadge defines a new badge. Admin surface.
func (s *BadgeService) CreateBadge(badge *models.Badge) error {
	if badge.RequirementTimeframe == "" {
		badge.RequirementTimeframe = models.TimeframeAllTime
	}
	if badge.Rarity == "" {
		badge.Rarity = models.RarityCommon
	}
	if err := s.db.Create(badge).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrBadgeNameTaken
		}
		return err
	}
	return nil
}

// ListBadges returns badge definitions; secret badges are filtered out
// unless includeSecret is set (admin view).
func (s *BadgeService) ListBadges(includeSecret bool) ([]models.Badge, error) {
	query := s.db.Where("is_active = ?", true)
	if !includeSecret {
		query = query.Where("is_secret = ?", false)
	}
	var badges []models.Badge
	err := query.Order("id ASC").Find(&badges).Error
	return badges, err
}

func (s *BadgeService) heldBadgeIDs(userID uint) (map[uint]bool, error) {
	var rows []models.UserBadge
	if err := s.db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	held := make(map[uint]bool, len(rows))
	for _, r := range rows {
		held[r.BadgeID] = true
	}
	return held, nil
}

func (s *BadgeService) unlockable(badge *models.Badge, held map[uint]bool, now time.Time) bool {
	if badge.UnlockAfter != nil && now.Before(*badge.UnlockAfter) {
		return false
	}
	if badge.UnlockUntil != nil && now.After(*badge.UnlockUntil) {
		return false
	}
	for _, id := range badge.RequiredBadgeIDs() {
		if !held[id] {
			return false
		}
	}
	for _, id := range badge.ExcludedBadgeIDs() {
		if held[id] {
			return false
		}
	}
	return true
}

var errUnknownRequirement = errors.New("unknown badge requirement type")

func (s *BadgeService) qualifies(user *models.User, badge *models.Badge, now time.Time) (bool, error) {
	var value int
	switch badge.RequirementType {
	case models.RequirementStreak:
		value = user.CurrentStreak
	case models.RequirementPoints:
		value = user.Points
	case models.RequirementLevel:
		value = user.Level
	case models.RequirementVotesCount:
		if badge.RequirementTimeframe == models.TimeframeAllTime {
			value = user.VotesCount
		} else {
			count, err := s.countSince(&models.Vote{}, "user_id", user.ID, badge.RequirementTimeframe, now)
			if err != nil {
				return false, err
			}
			value = count
		}
	case models.RequirementQuestionsCreated:
		if badge.RequirementTimeframe == models.TimeframeAllTime {
			value = user.QuestionsCreated
		} else {
			count, err := s.countSince(&models.Question{}, "author_id", user.ID, badge.RequirementTimeframe, now)
			if err != nil {
				return false, err
			}
			value = count
		}
	case models.RequirementSocialActions:
		count, err := s.countSince(&models.ChatMessage{}, "user_id", user.ID, badge.RequirementTimeframe, now)
		if err != nil {
			return false, err
		}
		value = count
	default:
		return false, errUnknownRequirement
	}
	return value >= badge.RequirementThreshold, nil
}

func (s *BadgeService) countSince(model interface{}, column string, userID uint, timeframe string, now time.Time) (int, error) {
	query := s.db.Model(model).Where(column+" = ?", userID)
	if start, bounded := timeframeStart(timeframe, now); bounded {
		query = query.Where("created_at >= ?", start)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// timeframeStart returns the calendar boundary a timeframe counts from.
func timeframeStart(timeframe string, now time.Time) (time.Time, bool) {
	y, m, d := now.Local().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch timeframe {
	case models.TimeframeDaily:
		return midnight, true
	case models.TimeframeWeekly:
		offset := (int(midnight.Weekday()) + 6) % 7 // Monday start
		return midnight.AddDate(0, 0, -offset), true
	case models.TimeframeMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}

// award inserts the earned-badge row and grants the reward points in one
// transaction. The unique (user_id, badge_id) index turns a concurrent
// double award into a no-op.
func (s *BadgeService) award(userID uint, badge *models.Badge, now time.Time) (bool, error) {
	awarded := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		entry := models.UserBadge{UserID: userID, BadgeID: badge.ID, EarnedAt: now}
		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil // already held, desired end state
			}
			return err
		}
		awarded = true

		if badge.RewardPoints == 0 {
			return nil
		}
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		user.Points += badge.RewardPoints
		user.Experience += badge.RewardPoints
		user.Level = models.LevelForExperience(user.Experience)
		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"points":     user.Points,
			"experience": user.Experience,
			"level":      user.Level,
		}).Error
	})
	return awarded, err
}
