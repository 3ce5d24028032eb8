package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, "test-secret")

	token, err := svc.Register("alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, isAdmin, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.NotZero(t, userID)
	assert.False(t, isAdmin)

	loginToken, err := svc.Login("alice", "hunter22")
	require.NoError(t, err)
	loginID, _, err := svc.ValidateToken(loginToken)
	require.NoError(t, err)
	assert.Equal(t, userID, loginID)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, "test-secret")

	_, err := svc.Register("alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Register("alice", "other@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin_BadCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, "test-secret")

	_, err := svc.Register("alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService(db, "test-secret")
	users := NewUserService(db)

	_, err := auth.Register("alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	token, err := auth.Login("alice", "hunter22")
	require.NoError(t, err)
	userID, _, err := auth.ValidateToken(token)
	require.NoError(t, err)

	require.NoError(t, users.Deactivate(userID))
	_, err = auth.Login("alice", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, "test-secret")

	token, err := svc.Register("alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	other := NewAuthService(db, "different-secret")
	_, _, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestLeaderboard_DBFallback(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db, nil)

	points := []int{30, 100, 70}
	for i, p := range points {
		user := createTestUser(t, db, []string{"bronze", "gold", "silver"}[i])
		require.NoError(t, db.Model(user).Update("points", p).Error)
	}
	inactive := createTestUser(t, db, "ghost")
	require.NoError(t, db.Model(inactive).Updates(map[string]interface{}{
		"points": 999, "is_active": false,
	}).Error)

	entries, err := svc.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 3, "deactivated accounts never rank")

	assert.Equal(t, "gold", entries[0].Username)
	assert.Equal(t, "silver", entries[1].Username)
	assert.Equal(t, "bronze", entries[2].Username)
	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Rank)
	}
}

func TestPublicProfile_HidesDeactivated(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := createTestUser(t, db, "alice")

	profile, err := svc.PublicProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.NotNil(t, profile.Badges)

	require.NoError(t, svc.Deactivate(user.ID))
	_, err = svc.PublicProfile(user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
