package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/TeaBear5/inspyre-ping-pong/models"
	"github.com/TeaBear5/inspyre-ping-pong/rating"
	"github.com/TeaBear5/inspyre-ping-pong/repositories"
)

// LeaderboardService serves the weekly standings and the all-time
// rating ladder, and recomputes standing ranks.
type LeaderboardService interface {
	// WeeklyStandings returns the standings of the given ISO week with
	// ranks computed from the live points, standard competition style:
	// equal points share a rank and the next rank skips accordingly.
	WeeklyStandings(ctx context.Context, week, year int) ([]*models.WeeklyStanding, error)
	EloLadder(ctx context.Context, limit, offset int) ([]*models.PlayerProfile, error)
	// PersistWeekRanks writes the computed ranks back onto the standing
	// rows of the given week. Called by the scheduler so past weeks
	// keep their final ranking.
	PersistWeekRanks(ctx context.Context, week, year int) error
}

type leaderboardService struct {
	db           *sql.DB
	standingRepo repositories.StandingRepository
	profileRepo  repositories.ProfileRepository
	logger       *slog.Logger
}

func NewLeaderboardService(
	db *sql.DB,
	standingRepo repositories.StandingRepository,
	profileRepo repositories.ProfileRepository,
	logger *slog.Logger,
) LeaderboardService {
	return &leaderboardService{
		db:           db,
		standingRepo: standingRepo,
		profileRepo:  profileRepo,
		logger:       logger,
	}
}

func (s *leaderboardService) WeeklyStandings(ctx context.Context, week, year int) ([]*models.WeeklyStanding, error) {
	standings, err := s.standingRepo.ListByWeek(ctx, week, year)
	if err != nil {
		return nil, err
	}
	applyRanks(standings)
	return standings, nil
}

func (s *leaderboardService) EloLadder(ctx context.Context, limit, offset int) ([]*models.PlayerProfile, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.profileRepo.ListBySinglesElo(ctx, limit, offset)
}

func (s *leaderboardService) PersistWeekRanks(ctx context.Context, week, year int) error {
	standings, err := s.standingRepo.ListByWeek(ctx, week, year)
	if err != nil {
		return err
	}
	if len(standings) == 0 {
		return nil
	}
	applyRanks(standings)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rank transaction: %w", err)
	}
	defer tx.Rollback()

	for _, standing := range standings {
		if err := s.standingRepo.UpdateRank(ctx, tx, standing.ID, *standing.Rank); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rank transaction: %w", err)
	}

	s.logger.Info("weekly ranks persisted",
		slog.Int("week", week), slog.Int("year", year), slog.Int("standings", len(standings)))
	return nil
}

// applyRanks annotates the standings with competition ranks. The repo
// returns rows ordered by points; ranking is recomputed here so a stale
// stored rank never leaks out.
func applyRanks(standings []*models.WeeklyStanding) {
	entries := make([]rating.PointsEntry, len(standings))
	for i, standing := range standings {
		entries[i] = rating.PointsEntry{PlayerID: standing.PlayerID, Points: standing.Points}
	}
	ranked := rating.Rank(entries)

	byPlayer := make(map[int]int, len(ranked))
	for _, entry := range ranked {
		byPlayer[entry.PlayerID] = entry.Rank
	}
	for _, standing := range standings {
		rank := byPlayer[standing.PlayerID]
		standing.Rank = &rank
	}
}
