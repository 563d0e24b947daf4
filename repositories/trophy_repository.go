package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TeaBear5/inspyre-ping-pong/models"
)

type TrophyRepository interface {
	// Award inserts the trophy if the (player, type, value, week, year)
	// key is not present yet. The uniqueness constraint, not a lock,
	// makes concurrent duplicate awards collapse into one row; week and
	// year are stored as zero (never NULL) for non-weekly trophies so
	// the arbiter index always matches duplicates. Returns true when a
	// new trophy was created.
	Award(ctx context.Context, exec SQLExecutor, trophy *models.Trophy) (bool, error)
	ListByPlayer(ctx context.Context, playerID int) ([]*models.Trophy, error)
	ListAwardedValues(ctx context.Context, exec SQLExecutor, playerID int, trophyType models.TrophyType) (map[int]bool, error)
}

type postgresTrophyRepository struct {
	db *sql.DB
}

func NewPostgresTrophyRepository(db *sql.DB) TrophyRepository {
	return &postgresTrophyRepository{db: db}
}

func (r *postgresTrophyRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTrophyRepository) Award(ctx context.Context, exec SQLExecutor, trophy *models.Trophy) (bool, error) {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO trophies (player_id, trophy_type, name, description, icon, week_number, year, value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (player_id, trophy_type, value, week_number, year) DO NOTHING
		RETURNING id, earned_at`

	err := executor.QueryRowContext(ctx, query,
		trophy.PlayerID,
		trophy.Type,
		trophy.Name,
		trophy.Description,
		trophy.Icon,
		trophy.WeekNumber,
		trophy.Year,
		trophy.Value,
	).Scan(&trophy.ID, &trophy.EarnedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			// Conflict: already awarded.
			return false, nil
		}
		return false, fmt.Errorf("failed to award trophy %q to player %d: %w", trophy.Name, trophy.PlayerID, err)
	}
	return true, nil
}

const trophyColumns = `id, player_id, trophy_type, name, description, icon, week_number, year, value, earned_at`

func (r *postgresTrophyRepository) ListByPlayer(ctx context.Context, playerID int) ([]*models.Trophy, error) {
	query := `SELECT ` + trophyColumns + ` FROM trophies WHERE player_id = $1 ORDER BY earned_at DESC`
	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trophies for player %d: %w", playerID, err)
	}
	defer rows.Close()

	trophies := make([]*models.Trophy, 0)
	for rows.Next() {
		var t models.Trophy
		if scanErr := rows.Scan(
			&t.ID, &t.PlayerID, &t.Type, &t.Name, &t.Description, &t.Icon,
			&t.WeekNumber, &t.Year, &t.Value, &t.EarnedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan trophy row: %w", scanErr)
		}
		trophies = append(trophies, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during trophy rows iteration: %w", err)
	}
	return trophies, nil
}

func (r *postgresTrophyRepository) ListAwardedValues(ctx context.Context, exec SQLExecutor, playerID int, trophyType models.TrophyType) (map[int]bool, error) {
	executor := r.getExecutor(exec)
	query := `SELECT value FROM trophies WHERE player_id = $1 AND trophy_type = $2 AND value IS NOT NULL`
	rows, err := executor.QueryContext(ctx, query, playerID, trophyType)
	if err != nil {
		return nil, fmt.Errorf("failed to query awarded values for player %d: %w", playerID, err)
	}
	defer rows.Close()

	values := make(map[int]bool)
	for rows.Next() {
		var v int
		if scanErr := rows.Scan(&v); scanErr != nil {
			return nil, fmt.Errorf("failed to scan awarded value: %w", scanErr)
		}
		values[v] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during awarded value iteration: %w", err)
	}
	return values, nil
}
