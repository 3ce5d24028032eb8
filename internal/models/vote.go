package models

import "time"

type Vote struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_vote_unique" json:"user_id"`
	QuestionID     uint      `gorm:"not null;uniqueIndex:idx_vote_unique;index" json:"question_id"`
	Choice         string    `gorm:"size:1;not null" json:"choice"`
	DecisionTimeMs int       `gorm:"not null;default:0" json:"decision_time_ms"`
	Confidence     int       `gorm:"not null;default:3" json:"confidence"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	ChoiceA = "A"
	ChoiceB = "B"

	// How long after creation a vote's choice may still be changed.
	VoteEditWindow = 5 * time.Minute
)
