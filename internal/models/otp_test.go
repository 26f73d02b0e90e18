package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePurpose(t *testing.T) {
	for _, valid := range []string{"register", "login_verification", "forgot_password"} {
		p, err := ParsePurpose(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(p))
	}

	_, err := ParsePurpose("admin_takeover")
	assert.Error(t, err)

	_, err = ParsePurpose("")
	assert.Error(t, err)
}

func TestUser_IsLocked(t *testing.T) {
	var u User
	assert.False(t, u.IsLocked())

	future := time.Now().Add(1 * time.Hour)
	u.LockedUntil = &future
	assert.True(t, u.IsLocked())

	past := time.Now().Add(-1 * time.Minute)
	u.LockedUntil = &past
	assert.False(t, u.IsLocked())
}

func TestUser_HasAchievement(t *testing.T) {
	u := User{Achievements: []string{"first_game"}}

	assert.True(t, u.HasAchievement("first_game"))
	assert.False(t, u.HasAchievement("high_roller"))
}

func TestKnownGame(t *testing.T) {
	for _, game := range []string{GameSnake, GameTicTacToe, GameMemory, GameBricks} {
		assert.True(t, KnownGame(game))
	}
	assert.False(t, KnownGame("pinball"))
	assert.False(t, KnownGame(""))
}
