package models

import (
	"strconv"
	"strings"
	"time"
)

type Badge struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:500" json:"description,omitempty"`
	Icon        string `gorm:"size:50" json:"icon,omitempty"`
	Category    string `gorm:"size:50" json:"category,omitempty"`
	Rarity      string `gorm:"size:20;not null;default:'common'" json:"rarity"`

	RequirementType      string `gorm:"size:50;not null" json:"requirement_type"`
	RequirementThreshold int    `gorm:"not null;default:1" json:"requirement_threshold"`
	RequirementTimeframe string `gorm:"size:20;not null;default:'all_time'" json:"requirement_timeframe"`

	RewardPoints int  `gorm:"not null;default:0" json:"reward_points"`
	IsActive     bool `gorm:"not null;default:true" json:"is_active"`
	IsSecret     bool `gorm:"not null;default:false" json:"is_secret"`

	UnlockAfter *time.Time `json:"unlock_after,omitempty"`
	UnlockUntil *time.Time `json:"unlock_until,omitempty"`

	// Comma-separated badge IDs. Empty means no precondition.
	RequiredBadges string `gorm:"size:255" json:"required_badges,omitempty"`
	ExcludedBadges string `gorm:"size:255" json:"excluded_badges,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	RequirementVotesCount       = "votes_count"
	RequirementQuestionsCreated = "questions_created"
	RequirementStreak           = "streak"
	RequirementPoints           = "points"
	RequirementLevel            = "level"
	RequirementSocialActions    = "social_actions"

	TimeframeDaily   = "daily"
	TimeframeWeekly  = "weekly"
	TimeframeMonthly = "monthly"
	TimeframeAllTime = "all_time"

	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// RequiredBadgeIDs parses the comma-separated precondition list.
func (b *Badge) RequiredBadgeIDs() []uint {
	return parseIDList(b.RequiredBadges)
}

// ExcludedBadgeIDs parses the comma-separated exclusion list.
func (b *Badge) ExcludedBadgeIDs() []uint {
	return parseIDList(b.ExcludedBadges)
}

func parseIDList(s string) []uint {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// UserBadge links a user to a badge they earned. The unique index is what
// makes concurrent award attempts collapse into a single row.
type UserBadge struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID  uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	Badge    Badge     `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt time.Time `json:"earned_at"`
}
