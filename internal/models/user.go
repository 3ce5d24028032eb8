package models

import (
	"math"
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Avatar       string    `gorm:"size:500" json:"avatar,omitempty"`
	Bio          string    `gorm:"size:500" json:"bio,omitempty"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"is_admin"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`

	// Gamification state. Level is always derived from Experience on write,
	// the stored column exists only for cheap leaderboard reads.
	QuestionsCreated int        `gorm:"not null;default:0" json:"questions_created"`
	VotesCount       int        `gorm:"not null;default:0" json:"votes_count"`
	Points           int        `gorm:"not null;default:0" json:"points"`
	Experience       int        `gorm:"not null;default:0" json:"experience"`
	Level            int        `gorm:"not null;default:1" json:"level"`
	CurrentStreak    int        `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak    int        `gorm:"not null;default:0" json:"longest_streak"`
	LastActivity     *time.Time `json:"last_activity,omitempty"`

	Badges []UserBadge `gorm:"foreignKey:UserID" json:"badges,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LevelForExperience computes the level implied by an experience total.
func LevelForExperience(experience int) int {
	if experience < 0 {
		experience = 0
	}
	return int(math.Floor(math.Sqrt(float64(experience)/100))) + 1
}
