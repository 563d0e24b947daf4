package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/TeaBear5/inspyre-ping-pong/models"
)

var ErrStandingNotFound = errors.New("weekly standing not found")

type StandingRepository interface {
	// AddResult records one scored game for the player's standing of
	// the given ISO week, creating the row if it does not exist yet.
	// The upsert is a single statement, so concurrent scoring events
	// cannot race a duplicate row into existence.
	AddResult(ctx context.Context, exec SQLExecutor, playerID, weekNumber, year, points int, won bool) error
	ListByWeek(ctx context.Context, weekNumber, year int) ([]*models.WeeklyStanding, error)
	UpdateRank(ctx context.Context, exec SQLExecutor, standingID, rank int) error
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) AddResult(ctx context.Context, exec SQLExecutor, playerID, weekNumber, year, points int, won bool) error {
	executor := r.getExecutor(exec)
	wonIncrement := 0
	if won {
		wonIncrement = 1
	}

	query := `
		INSERT INTO weekly_standings (player_id, week_number, year, points, games_played, games_won)
		VALUES ($1, $2, $3, $4, 1, $5)
		ON CONFLICT (player_id, week_number, year) DO UPDATE SET
			points = weekly_standings.points + EXCLUDED.points,
			games_played = weekly_standings.games_played + 1,
			games_won = weekly_standings.games_won + EXCLUDED.games_won,
			updated_at = NOW()`

	if _, err := executor.ExecContext(ctx, query, playerID, weekNumber, year, points, wonIncrement); err != nil {
		return fmt.Errorf("failed to upsert standing for player %d week %d/%d: %w", playerID, weekNumber, year, err)
	}
	return nil
}

const standingColumns = `
	s.id, s.player_id, s.week_number, s.year, s.points, s.games_played, s.games_won, s.rank,
	s.created_at, s.updated_at`

func (r *postgresStandingRepository) ListByWeek(ctx context.Context, weekNumber, year int) ([]*models.WeeklyStanding, error) {
	query := `
		SELECT` + standingColumns + `,
		       u.id, u.first_name, u.last_name, u.nickname, u.email, u.role, u.avatar_key, u.created_at
		FROM weekly_standings s
		JOIN users u ON s.player_id = u.id
		WHERE s.week_number = $1 AND s.year = $2
		ORDER BY s.points DESC, s.player_id ASC`

	rows, err := r.db.QueryContext(ctx, query, weekNumber, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings for week %d/%d: %w", weekNumber, year, err)
	}
	defer rows.Close()

	standings := make([]*models.WeeklyStanding, 0)
	for rows.Next() {
		var s models.WeeklyStanding
		var u models.User
		if scanErr := rows.Scan(
			&s.ID, &s.PlayerID, &s.WeekNumber, &s.Year, &s.Points, &s.GamesPlayed, &s.GamesWon, &s.Rank,
			&s.CreatedAt, &s.UpdatedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.Email, &u.Role, &u.AvatarKey, &u.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", scanErr)
		}
		s.Player = &u
		standings = append(standings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during standing rows iteration: %w", err)
	}
	return standings, nil
}

func (r *postgresStandingRepository) UpdateRank(ctx context.Context, exec SQLExecutor, standingID, rank int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE weekly_standings SET rank = $1, updated_at = NOW() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, rank, standingID)
	if err != nil {
		return fmt.Errorf("failed to update rank for standing %d: %w", standingID, err)
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}
