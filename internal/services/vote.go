package services

import (
	"errors"
	"math"
	"time"

	"github.com/mathewgeejo/would-you-rather/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoteService struct {
	db          *gorm.DB
	progression *ProgressionService
	badges      *BadgeService
}

func NewVoteService(db *gorm.DB, progression *ProgressionService, badges *BadgeService) *VoteService {
	return &VoteService{db: db, progression: progression, badges: badges}
}

// Submit records a first-time vote. The one-vote-per-user-per-question
// invariant is enforced by the unique index on (user_id, question_id),
// not by a check-then-write, so concurrent duplicates lose at the store.
func (s *VoteService) Submit(userID, questionID uint, choice string, decisionTimeMs, confidence int) (*VoteResult, error) {
	if choice != models.ChoiceA && choice != models.ChoiceB {
		return nil, ErrInvalidChoice
	}
	if confidence < 1 {
		confidence = 1
	} else if confidence > 5 {
		confidence = 5
	}

	vote := models.Vote{
		UserID:         userID,
		QuestionID:     questionID,
		Choice:         choice,
		DecisionTimeMs: decisionTimeMs,
		Confidence:     confidence,
		CreatedAt:      time.Now(),
	}

	var stats QuestionStats
	err := s.db.Transaction(func(tx *gorm.DB) error {
		question, err := lockQuestion(tx, questionID)
		if err != nil {
			return err
		}
		if !question.IsActive || question.Status != models.QuestionStatusApproved {
			return ErrQuestionUnavailable
		}

		if err := tx.Create(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyVoted
			}
			return err
		}

		stats, err = recomputeStats(tx, question)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &VoteResult{Vote: vote, Stats: stats}
	s.applyProgression(userID, result)
	return result, nil
}

// Change swaps the choice of an existing vote within the edit window.
func (s *VoteService) Change(userID, questionID uint, newChoice string) (*VoteResult, error) {
	if newChoice != models.ChoiceA && newChoice != models.ChoiceB {
		return nil, ErrInvalidChoice
	}

	var vote models.Vote
	var stats QuestionStats
	err := s.db.Transaction(func(tx *gorm.DB) error {
		question, err := lockQuestion(tx, questionID)
		if err != nil {
			return err
		}

		if err := tx.Where("user_id = ? AND question_id = ?", userID, questionID).
			First(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVoteNotFound
			}
			return err
		}
		if time.Since(vote.CreatedAt) > models.VoteEditWindow {
			return ErrEditWindowExpired
		}

		if vote.Choice != newChoice {
			vote.Choice = newChoice
			if err := tx.Model(&models.Vote{}).Where("id = ?", vote.ID).
				Update("choice", newChoice).Error; err != nil {
				return err
			}
		}

		stats, err = recomputeStats(tx, question)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &VoteResult{Vote: vote, Stats: stats}, nil
}

// Delete removes a vote and claws back the progression it granted.
// Moderation only; callers are expected to have checked the admin role.
func (s *VoteService) Delete(voteID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var vote models.Vote
		if err := tx.First(&vote, voteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		question, err := lockQuestion(tx, vote.QuestionID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&vote).Error; err != nil {
			return err
		}
		if _, err := recomputeStats(tx, question); err != nil {
			return err
		}

		return s.progression.removeVoteAward(tx, vote.UserID)
	})
}

// QuestionVotes returns the analytics snapshot for one question.
func (s *VoteService) QuestionVotes(questionID uint) (*QuestionAnalytics, error) {
	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	analytics := &QuestionAnalytics{
		QuestionID: question.ID,
		Stats:      statsFromQuestion(&question),
	}

	var rows []confidenceRow
	s.db.Model(&models.Vote{}).
		Select("choice, COALESCE(AVG(confidence), 0) AS avg_confidence").
		Where("question_id = ?", questionID).
		Group("choice").
		Scan(&rows)
	for _, r := range rows {
		switch r.Choice {
		case models.ChoiceA:
			analytics.AvgConfidenceA = r.AvgConfidence
		case models.ChoiceB:
			analytics.AvgConfidenceB = r.AvgConfidence
		}
	}

	return analytics, nil
}

// UserVote returns the caller's vote on a question, if any.
func (s *VoteService) UserVote(userID, questionID uint) (*models.Vote, error) {
	var vote models.Vote
	if err := s.db.Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoteNotFound
		}
		return nil, err
	}
	return &vote, nil
}

func (s *VoteService) applyProgression(userID uint, result *VoteResult) {
	leveledUp, newLevel, err := s.progression.AwardVotePoints(userID)
	if err != nil {
		logrus.WithField("user_id", userID).WithError(err).Error("failed to award vote points")
	} else {
		result.LeveledUp = leveledUp
		result.NewLevel = newLevel
	}

	streak, err := s.progression.UpdateStreak(userID)
	if err != nil {
		logrus.WithField("user_id", userID).WithError(err).Error("failed to update streak")
	} else {
		result.CurrentStreak = streak
	}

	earned, err := s.badges.EvaluateAndAward(userID, TriggerVote)
	if err != nil {
		logrus.WithField("user_id", userID).WithError(err).Error("badge evaluation failed")
	} else {
		result.EarnedBadges = earned
	}
}

func lockQuestion(tx *gorm.DB, questionID uint) (*models.Question, error) {
	var question models.Question
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// recomputeStats rebuilds the embedded tally from the vote rows so the
// aggregate can never drift from the underlying vote set. Callers must
// hold the question row lock.
func recomputeStats(tx *gorm.DB, question *models.Question) (QuestionStats, error) {
	var agg struct {
		Total  int64
		CountA int64
		CountB int64
		AvgMs  float64
	}
	err := tx.Model(&models.Vote{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN choice = 'A' THEN 1 ELSE 0 END), 0) AS count_a, "+
				"COALESCE(SUM(CASE WHEN choice = 'B' THEN 1 ELSE 0 END), 0) AS count_b, "+
				"COALESCE(AVG(decision_time_ms), 0) AS avg_ms").
		Where("question_id = ?", question.ID).
		Scan(&agg).Error
	if err != nil {
		return QuestionStats{}, err
	}

	percentA, percentB := 0, 0
	if agg.Total > 0 {
		percentA = int(math.Round(float64(agg.CountA) / float64(agg.Total) * 100))
		percentB = int(math.Round(float64(agg.CountB) / float64(agg.Total) * 100))
	}

	question.TotalVotes = int(agg.Total)
	question.VotesA = int(agg.CountA)
	question.VotesB = int(agg.CountB)
	question.PercentA = percentA
	question.PercentB = percentB
	question.AvgDecisionMs = int(math.Round(agg.AvgMs))

	err = tx.Model(&models.Question{}).Where("id = ?", question.ID).Updates(map[string]interface{}{
		"total_votes":     question.TotalVotes,
		"votes_a":         question.VotesA,
		"votes_b":         question.VotesB,
		"percent_a":       question.PercentA,
		"percent_b":       question.PercentB,
		"avg_decision_ms": question.AvgDecisionMs,
	}).Error
	if err != nil {
		return QuestionStats{}, err
	}

	return statsFromQuestion(question), nil
}

func statsFromQuestion(q *models.Question) QuestionStats {
	engagement := 0.0
	if q.Views > 0 {
		engagement = float64(q.TotalVotes) / float64(q.Views) * 100
	}
	return QuestionStats{
		TotalVotes:     q.TotalVotes,
		VotesA:         q.VotesA,
		VotesB:         q.VotesB,
		PercentA:       q.PercentA,
		PercentB:       q.PercentB,
		AvgDecisionMs:  q.AvgDecisionMs,
		Views:          q.Views,
		Shares:         q.Shares,
		CommentsCount:  q.CommentsCount,
		EngagementRate: engagement,
	}
}

type confidenceRow struct {
	Choice        string
	AvgConfidence float64
}

type QuestionStats struct {
	TotalVotes     int     `json:"total_votes"`
	VotesA         int     `json:"votes_a"`
	VotesB         int     `json:"votes_b"`
	PercentA       int     `json:"percent_a"`
	PercentB       int     `json:"percent_b"`
	AvgDecisionMs  int     `json:"avg_decision_ms"`
	Views          int     `json:"views"`
	Shares         int     `json:"shares"`
	CommentsCount  int     `json:"comments_count"`
	EngagementRate float64 `json:"engagement_rate"`
}

type QuestionAnalytics struct {
	QuestionID     uint          `json:"question_id"`
	Stats          QuestionStats `json:"stats"`
	AvgConfidenceA float64       `json:"avg_confidence_a"`
	AvgConfidenceB float64       `json:"avg_confidence_b"`
}

type VoteResult struct {
	Vote          models.Vote    `json:"vote"`
	Stats         QuestionStats  `json:"stats"`
	LeveledUp     bool           `json:"leveled_up"`
	NewLevel      int            `json:"new_level,omitempty"`
	CurrentStreak int            `json:"current_streak"`
	EarnedBadges  []models.Badge `json:"earned_badges,omitempty"`
}
