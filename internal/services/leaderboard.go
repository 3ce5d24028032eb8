package services

import (
	"context"
	"strconv"
	"time"

	"github.com/mathewgeejo/would-you-rather/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const leaderboardKey = "leaderboard:points"

type LeaderboardService struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewLeaderboardService(db *gorm.DB, rdb *redis.Client) *LeaderboardService {
	return &LeaderboardService{db: db, redis: rdb}
}

// UpdateScore mirrors a user's point total into the redis sorted set.
// Redis being down is not an error for the caller; the DB remains the
// source of truth and Top falls back to it.
func (s *LeaderboardService) UpdateScore(ctx context.Context, userID uint, points int) {
	if s.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := s.redis.ZAdd(ctx, leaderboardKey, &redis.Z{
		Score:  float64(points),
		Member: strconv.FormatUint(uint64(userID), 10),
	}).Err()
	if err != nil {
		logrus.WithField("user_id", userID).WithError(err).Warn("leaderboard update failed")
	}
}

// Top returns the highest-scoring users. Rank is the 1-based position in
// the sorted result, never derived from anything else.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	if s.redis != nil {
		entries, err := s.topFromRedis(ctx, limit)
		if err == nil {
			return entries, nil
		}
		logrus.WithError(err).Warn("redis leaderboard unavailable, falling back to database")
	}
	return s.topFromDB(limit)
}

func (s *LeaderboardService) topFromRedis(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	zs, err := s.redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(zs))
	scores := make(map[uint]int, len(zs))
	for _, z := range zs {
		id, err := strconv.ParseUint(z.Member.(string), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
		scores[uint(id)] = int(z.Score)
	}
	if len(ids) == 0 {
		return []LeaderboardEntry{}, nil
	}

	var users []models.User
	if err := s.db.Where("id IN ? AND is_active = ?", ids, true).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	entries := make([]LeaderboardEntry, 0, len(ids))
	for _, id := range ids {
		user, ok := byID[id]
		if !ok {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Rank:          len(entries) + 1,
			UserID:        user.ID,
			Username:      user.Username,
			Avatar:        user.Avatar,
			Points:        scores[id],
			Level:         user.Level,
			CurrentStreak: user.CurrentStreak,
		})
	}
	return entries, nil
}

func (s *LeaderboardService) topFromDB(limit int) ([]LeaderboardEntry, error) {
	var users []models.User
	err := s.db.Where("is_active = ?", true).
		Order("points DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(users))
	for i, user := range users {
		entries[i] = LeaderboardEntry{
			Rank:          i + 1,
			UserID:        user.ID,
			Username:      user.Username,
			Avatar:        user.Avatar,
			Points:        user.Points,
			Level:         user.Level,
			CurrentStreak: user.CurrentStreak,
		}
	}
	return entries, nil
}

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        uint   `json:"user_id"`
	Username      string `json:"username"`
	Avatar        string `json:"avatar,omitempty"`
	Points        int    `json:"points"`
	Level         int    `json:"level"`
	CurrentStreak int    `json:"current_streak"`
}
