package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TeaBear5/inspyre-ping-pong/models"
	"github.com/lib/pq"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGamePlayerInvalid = errors.New("game player conflict or invalid")
)

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	// GetByIDForUpdate locks the game row for the duration of the
	// surrounding transaction, so two concurrent verifications of the
	// same result serialize.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	UpdateStatusVerified(ctx context.Context, exec SQLExecutor, id, verifierID int, at time.Time) error
	UpdateStatusDisputed(ctx context.Context, id, disputerID int, reason string, at time.Time) error
	UpdateStatusResolved(ctx context.Context, id, resolverID int, notes string, at time.Time) error
	UpdateStatusCancelled(ctx context.Context, id int) error
	// UpdateRatingResult writes the pre/post rating snapshot onto the
	// game row. Called exactly once, inside the processing transaction.
	UpdateRatingResult(ctx context.Context, exec SQLExecutor, game *models.Game) error
	ListByPlayer(ctx context.Context, playerID int, status *models.GameStatus, limit int) ([]*models.Game, error)
	ListPendingInvolving(ctx context.Context, userID int) ([]*models.Game, error)
	// LastVerifiedPlayedBefore returns the played_at of the most recent
	// verified game involving the player strictly before the given day.
	LastVerifiedPlayedBefore(ctx context.Context, exec SQLExecutor, playerID int, day time.Time) (*time.Time, error)
	// HasVerifiedPlayedOn reports whether the player has a verified
	// game played on the given day.
	HasVerifiedPlayedOn(ctx context.Context, exec SQLExecutor, playerID int, day time.Time) (bool, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `
	id, game_type, status,
	player1_id, player2_id,
	team1_player1_id, team1_player2_id, team2_player1_id, team2_player2_id,
	side1_score, side2_score, winner,
	reported_by_id, verified_by_id, disputed_by_id, dispute_reason, resolved_by_id, resolution_notes,
	played_at, reported_at, verified_at, disputed_at, resolved_at,
	side1_elo_before, side2_elo_before, side1_elo_after, side2_elo_after, elo_change,
	notes`

// involvesPlayer matches any seat of the game, singles or doubles.
const involvesPlayer = `(player1_id = $1 OR player2_id = $1
	OR team1_player1_id = $1 OR team1_player2_id = $1
	OR team2_player1_id = $1 OR team2_player2_id = $1)`

func scanGame(rowScanner interface{ Scan(...interface{}) error }) (*models.Game, error) {
	var g models.Game
	err := rowScanner.Scan(
		&g.ID, &g.Type, &g.Status,
		&g.Player1ID, &g.Player2ID,
		&g.Team1Player1ID, &g.Team1Player2ID, &g.Team2Player1ID, &g.Team2Player2ID,
		&g.Side1Score, &g.Side2Score, &g.Winner,
		&g.ReportedByID, &g.VerifiedByID, &g.DisputedByID, &g.DisputeReason, &g.ResolvedByID, &g.ResolutionNotes,
		&g.PlayedAt, &g.ReportedAt, &g.VerifiedAt, &g.DisputedAt, &g.ResolvedAt,
		&g.Side1EloBefore, &g.Side2EloBefore, &g.Side1EloAfter, &g.Side2EloAfter, &g.EloChange,
		&g.Notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *postgresGameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games
			(game_type, status,
			 player1_id, player2_id,
			 team1_player1_id, team1_player2_id, team2_player1_id, team2_player2_id,
			 side1_score, side2_score, winner, reported_by_id, played_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, reported_at`

	err := r.db.QueryRowContext(ctx, query,
		game.Type,
		game.Status,
		game.Player1ID,
		game.Player2ID,
		game.Team1Player1ID,
		game.Team1Player2ID,
		game.Team2Player1ID,
		game.Team2Player2ID,
		game.Side1Score,
		game.Side2Score,
		game.Winner,
		game.ReportedByID,
		game.PlayedAt,
		game.Notes,
	).Scan(&game.ID, &game.ReportedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrGamePlayerInvalid
		}
		return err
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + gameColumns + ` FROM games WHERE id = $1`
	g, err := scanGame(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrGameNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan game %d: %w", id, err)
	}
	return g, nil
}

func (r *postgresGameRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	if exec == nil {
		return nil, errors.New("GetByIDForUpdate requires a transaction executor")
	}
	query := `SELECT` + gameColumns + ` FROM games WHERE id = $1 FOR UPDATE`
	g, err := scanGame(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrGameNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock game %d: %w", id, err)
	}
	return g, nil
}

func (r *postgresGameRepository) UpdateStatusVerified(ctx context.Context, exec SQLExecutor, id, verifierID int, at time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE games SET status = $1, verified_by_id = $2, verified_at = $3
		WHERE id = $4 AND status = $5`
	result, err := executor.ExecContext(ctx, query,
		models.GameStatusVerified, verifierID, at, id, models.GameStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark game %d verified: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) UpdateStatusDisputed(ctx context.Context, id, disputerID int, reason string, at time.Time) error {
	query := `
		UPDATE games SET status = $1, disputed_by_id = $2, dispute_reason = $3, disputed_at = $4
		WHERE id = $5 AND status = $6`
	result, err := r.db.ExecContext(ctx, query,
		models.GameStatusDisputed, disputerID, reason, at, id, models.GameStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark game %d disputed: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) UpdateStatusResolved(ctx context.Context, id, resolverID int, notes string, at time.Time) error {
	query := `
		UPDATE games SET status = $1, resolved_by_id = $2, resolution_notes = $3, resolved_at = $4
		WHERE id = $5 AND status = $6`
	result, err := r.db.ExecContext(ctx, query,
		models.GameStatusResolved, resolverID, notes, at, id, models.GameStatusDisputed)
	if err != nil {
		return fmt.Errorf("failed to mark game %d resolved: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) UpdateStatusCancelled(ctx context.Context, id int) error {
	// Terminal statuses stay immutable even when the caller's pre-check
	// raced a concurrent verification.
	query := `UPDATE games SET status = $1 WHERE id = $2 AND status IN ($3, $4)`
	result, err := r.db.ExecContext(ctx, query,
		models.GameStatusCancelled, id, models.GameStatusPending, models.GameStatusDisputed)
	if err != nil {
		return fmt.Errorf("failed to cancel game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) UpdateRatingResult(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE games SET
			side1_elo_before = $1, side2_elo_before = $2,
			side1_elo_after = $3, side2_elo_after = $4,
			elo_change = $5
		WHERE id = $6 AND elo_change IS NULL`
	result, err := executor.ExecContext(ctx, query,
		game.Side1EloBefore, game.Side2EloBefore,
		game.Side1EloAfter, game.Side2EloAfter,
		game.EloChange, game.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to write rating result for game %d: %w", game.ID, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) ListByPlayer(ctx context.Context, playerID int, status *models.GameStatus, limit int) ([]*models.Game, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT` + gameColumns + ` FROM games WHERE ` + involvesPlayer)

	args := []interface{}{playerID}
	if status != nil {
		queryBuilder.WriteString(" AND status = $2")
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY played_at DESC, id DESC")
	queryBuilder.WriteString(" LIMIT $" + strconv.Itoa(len(args)+1))
	args = append(args, limit)

	return r.queryGames(ctx, queryBuilder.String(), args...)
}

func (r *postgresGameRepository) ListPendingInvolving(ctx context.Context, userID int) ([]*models.Game, error) {
	query := `SELECT` + gameColumns + ` FROM games
		WHERE ` + involvesPlayer + ` AND status = $2 AND reported_by_id != $1
		ORDER BY reported_at DESC`
	return r.queryGames(ctx, query, userID, models.GameStatusPending)
}

func (r *postgresGameRepository) queryGames(ctx context.Context, query string, args ...interface{}) ([]*models.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		g, scanErr := scanGame(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", scanErr)
		}
		games = append(games, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during game rows iteration: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) LastVerifiedPlayedBefore(ctx context.Context, exec SQLExecutor, playerID int, day time.Time) (*time.Time, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT played_at FROM games
		WHERE ` + involvesPlayer + ` AND status = $2 AND played_at::date < $3::date
		ORDER BY played_at DESC
		LIMIT 1`

	var playedAt time.Time
	err := executor.QueryRowContext(ctx, query, playerID, models.GameStatusVerified, day).Scan(&playedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query last verified game for player %d: %w", playerID, err)
	}
	return &playedAt, nil
}

func (r *postgresGameRepository) HasVerifiedPlayedOn(ctx context.Context, exec SQLExecutor, playerID int, day time.Time) (bool, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT EXISTS (
			SELECT 1 FROM games
			WHERE ` + involvesPlayer + ` AND status = $2 AND played_at::date = $3::date
		)`

	var exists bool
	if err := executor.QueryRowContext(ctx, query, playerID, models.GameStatusVerified, day).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to query verified games on day for player %d: %w", playerID, err)
	}
	return exists, nil
}
