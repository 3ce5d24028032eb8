package models

import "time"

type Question struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	AuthorID      uint   `gorm:"not null;index" json:"author_id"`
	Author        User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	OptionA       string `gorm:"size:500;not null" json:"option_a"`
	OptionB       string `gorm:"size:500;not null" json:"option_b"`
	Category      string `gorm:"size:50;index" json:"category"`
	Status        string `gorm:"size:20;not null;default:'pending';index" json:"status"`
	IsAIGenerated bool   `gorm:"not null;default:false" json:"is_ai_generated"`
	IsActive      bool   `gorm:"not null;default:true" json:"is_active"`
	FlagCount     int    `gorm:"not null;default:0" json:"flag_count"`

	// Vote tally, owned by the vote service. Mutated only inside the
	// add-vote/remove-vote transactions, never written directly.
	TotalVotes    int `gorm:"not null;default:0" json:"total_votes"`
	VotesA        int `gorm:"not null;default:0" json:"votes_a"`
	VotesB        int `gorm:"not null;default:0" json:"votes_b"`
	PercentA      int `gorm:"not null;default:0" json:"percent_a"`
	PercentB      int `gorm:"not null;default:0" json:"percent_b"`
	AvgDecisionMs int `gorm:"not null;default:0" json:"avg_decision_ms"`
	Views         int `gorm:"not null;default:0" json:"views"`
	Shares        int `gorm:"not null;default:0" json:"shares"`
	CommentsCount int `gorm:"not null;default:0" json:"comments_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	QuestionStatusPending  = "pending"
	QuestionStatusApproved = "approved"
	QuestionStatusRejected = "rejected"

	// Distinct flags needed before an approved question goes back to review.
	FlagReviewThreshold = 3
)

// QuestionFlag records one user's report against a question. The unique
// index keeps repeat flags by the same user from counting twice.
type QuestionFlag struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_flag_unique" json:"question_id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_flag_unique" json:"user_id"`
	Reason     string    `gorm:"size:255" json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
