package models

import "time"

// Game identifiers matching the frontend games.
const (
	GameSnake     = "snake"
	GameTicTacToe = "tictactoe"
	GameMemory    = "memory"
	GameBricks    = "bricks"
)

// KnownGame reports whether the identifier is one of the shipped games.
func KnownGame(game string) bool {
	switch game {
	case GameSnake, GameTicTacToe, GameMemory, GameBricks:
		return true
	}
	return false
}

// GameStat is one user's denormalized play record for a single game.
type GameStat struct {
	UserID    string    `json:"-"`
	Game      string    `json:"game"`
	Plays     int       `json:"plays"`
	BestScore int       `json:"best_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeaderboardEntry is a leaderboard row, joined with the player's display name.
type LeaderboardEntry struct {
	Name      string `json:"name"`
	BestScore int    `json:"best_score"`
	Plays     int    `json:"plays"`
}
