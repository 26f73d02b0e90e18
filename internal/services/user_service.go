package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/lucasmendel/arcadia/internal/models"
)

// StatsRepository defines the game stat persistence operations.
type StatsRepository interface {
	RecordPlay(ctx context.Context, userID, game string, score int) (*models.GameStat, error)
	ListByUser(ctx context.Context, userID string) ([]*models.GameStat, error)
	Leaderboard(ctx context.Context, game string, limit int) ([]*models.LeaderboardEntry, error)
}

// Achievement tags awarded while recording plays.
const (
	AchievementFirstGame  = "first_game"
	AchievementHighRoller = "high_roller"

	highRollerScore    = 1000
	leaderboardSize    = 10
	maxLeaderboardSize = 100
)

// UserService handles profile and game-stat business logic.
type UserService struct {
	repo      UserRepository
	statsRepo StatsRepository
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, statsRepo StatsRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:      repo,
		statsRepo: statsRepo,
		logger:    logger,
	}
}

// GetProfile returns the caller's profile.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return userModelToResponse(user), nil
}

// UpdateProfile changes the caller's display name.
func (s *UserService) UpdateProfile(ctx context.Context, userID, name string) (*UserResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.ErrBadRequest
	}

	user, err := s.repo.UpdateName(ctx, userID, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return userModelToResponse(user), nil
}

// RecordPlay records one game result and awards any achievements it earns.
func (s *UserService) RecordPlay(ctx context.Context, userID, game string, score int) (*models.GameStat, error) {
	if !models.KnownGame(game) {
		return nil, models.ErrBadRequest
	}
	if score < 0 {
		return nil, models.ErrBadRequest
	}

	stat, err := s.statsRepo.RecordPlay(ctx, userID, game, score)
	if err != nil {
		s.logger.Error("failed to record play",
			slog.String("user_id", userID),
			slog.String("game", game),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Achievement awards are best-effort; a failure never loses the play.
	if err := s.repo.AddAchievement(ctx, userID, AchievementFirstGame); err != nil {
		s.logger.Error("failed to award achievement", slog.String("user_id", userID), slog.Any("error", err))
	}
	if score >= highRollerScore {
		if err := s.repo.AddAchievement(ctx, userID, AchievementHighRoller); err != nil {
			s.logger.Error("failed to award achievement", slog.String("user_id", userID), slog.Any("error", err))
		}
	}

	return stat, nil
}

// GetStats returns all of the caller's game stats.
func (s *UserService) GetStats(ctx context.Context, userID string) ([]*models.GameStat, error) {
	stats, err := s.statsRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list stats", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return stats, nil
}

// Leaderboard returns the top players for a game.
func (s *UserService) Leaderboard(ctx context.Context, game string, limit int) ([]*models.LeaderboardEntry, error) {
	if !models.KnownGame(game) {
		return nil, models.ErrBadRequest
	}
	if limit <= 0 {
		limit = leaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	entries, err := s.statsRepo.Leaderboard(ctx, game, limit)
	if err != nil {
		s.logger.Error("failed to load leaderboard", slog.String("game", game), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return entries, nil
}
