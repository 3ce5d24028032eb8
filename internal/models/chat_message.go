package models

import "time"

type ChatMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ParentID   *uint     `json:"parent_id,omitempty"`
	Message    string    `gorm:"size:1000;not null" json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
