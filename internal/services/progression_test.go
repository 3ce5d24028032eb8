package services

import (
	"testing"
	"time"

	"github.com/mathewgeejo/would-you-rather/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForExperience(t *testing.T) {
	cases := []struct {
		experience int
		level      int
	}{
		{0, 1},
		{10, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{899, 3},
		{900, 4},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, models.LevelForExperience(tc.experience),
			"experience=%d", tc.experience)
	}
}

func TestAwardVotePoints(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)
	user := createTestUser(t, db, "alice")

	leveledUp, level, err := svc.AwardVotePoints(user.ID)
	require.NoError(t, err)
	assert.False(t, leveledUp, "10 exp keeps level 1")
	assert.Equal(t, 1, level)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, 10, stored.Points)
	assert.Equal(t, 10, stored.Experience)
	assert.Equal(t, 1, stored.VotesCount)
}

func TestAwardVotePoints_LevelUp(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)
	user := createTestUser(t, db, "alice")
	require.NoError(t, db.Model(user).Updates(map[string]interface{}{
		"experience": 390, "points": 390, "level": 2,
	}).Error)

	leveledUp, level, err := svc.AwardVotePoints(user.ID)
	require.NoError(t, err)
	assert.True(t, leveledUp)
	assert.Equal(t, 3, level)
}

func TestAwardQuestionPoints(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)
	user := createTestUser(t, db, "alice")

	_, _, err := svc.AwardQuestionPoints(user.ID, false)
	require.NoError(t, err)
	_, _, err = svc.AwardQuestionPoints(user.ID, true)
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, QuestionPoints+AIQuestionPoints, stored.Points)
	assert.Equal(t, 2, stored.QuestionsCreated)
}

func TestUpdateStreak_FirstActivity(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)
	user := createTestUser(t, db, "alice")

	streak, err := svc.UpdateStreak(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
}

func TestUpdateStreak_SameDayUnchanged(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)
	user := createTestUser(t, db, "alice")

	_, err := svc.UpdateStreak(user.ID)
	require.NoError(t, err)
	streak, err := svc.UpdateStreak(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
}

func TestUpdateStreak_ConsecutiveDayIncrements(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)
	user := createTestUser(t, db, "alice")

	yesterday := time.Now().AddDate(0, 0, -1)
	require.NoError(t, db.Model(user).Updates(map[string]interface{}{
		"last_activity": yesterday, "current_streak": 4, "longest_streak": 4,
	}).Error)

	streak, err := svc.UpdateStreak(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, streak)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, 5, stored.LongestStreak)
}

func TestUpdateStreak_GapResets(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db)
	user := createTestUser(t, db, "alice")

	threeDaysAgo := time.Now().AddDate(0, 0, -3)
	require.NoError(t, db.Model(user).Updates(map[string]interface{}{
		"last_activity": threeDaysAgo, "current_streak": 9, "longest_streak": 9,
	}).Error)

	streak, err := svc.UpdateStreak(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, 9, stored.LongestStreak, "longest streak survives the reset")
}

func TestCalendarDayGap(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 30, 0, 0, time.Local)

	lateYesterday := time.Date(2024, 3, 9, 23, 45, 0, 0, time.Local)
	assert.Equal(t, 1, calendarDayGap(&lateYesterday, now),
		"45 minutes apart but across midnight is a one-day gap")

	sameDay := time.Date(2024, 3, 10, 0, 5, 0, 0, time.Local)
	assert.Equal(t, 0, calendarDayGap(&sameDay, now))

	twoDays := time.Date(2024, 3, 8, 23, 59, 0, 0, time.Local)
	assert.Equal(t, 2, calendarDayGap(&twoDays, now))
}
