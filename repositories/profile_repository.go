package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/TeaBear5/inspyre-ping-pong/models"
)

var (
	ErrProfileNotFound    = errors.New("player profile not found")
	ErrProfileUserInvalid = errors.New("profile user conflict or invalid")
)

type ProfileRepository interface {
	Create(ctx context.Context, exec SQLExecutor, profile *models.PlayerProfile) error
	GetByUserID(ctx context.Context, exec SQLExecutor, userID int) (*models.PlayerProfile, error)
	// LockByUserIDs acquires row locks on the given profiles in
	// ascending user-ID order and returns them keyed by user ID. It
	// must be called inside a transaction; concurrent processors
	// touching overlapping players serialize on these locks.
	LockByUserIDs(ctx context.Context, exec SQLExecutor, userIDs []int) (map[int]*models.PlayerProfile, error)
	// UpdateAggregates writes every processor-owned field of the
	// profile as one atomic statement.
	UpdateAggregates(ctx context.Context, exec SQLExecutor, profile *models.PlayerProfile) error
	UpdateTheme(ctx context.Context, userID int, theme models.ThemePreference) error
	ListBySinglesElo(ctx context.Context, limit, offset int) ([]*models.PlayerProfile, error)
}

type postgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

func (r *postgresProfileRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const profileColumns = `
	id, user_id, singles_elo, doubles_elo,
	peak_singles_elo, peak_doubles_elo, peak_singles_date, peak_doubles_date,
	singles_games_played, doubles_games_played,
	singles_wins, singles_losses, doubles_wins, doubles_losses,
	weekly_points, total_points, current_streak, longest_streak,
	theme_preference, created_at, updated_at`

func scanProfile(rowScanner interface{ Scan(...interface{}) error }) (*models.PlayerProfile, error) {
	var p models.PlayerProfile
	err := rowScanner.Scan(
		&p.ID, &p.UserID, &p.SinglesElo, &p.DoublesElo,
		&p.PeakSinglesElo, &p.PeakDoublesElo, &p.PeakSinglesDate, &p.PeakDoublesDate,
		&p.SinglesGamesPlayed, &p.DoublesGamesPlayed,
		&p.SinglesWins, &p.SinglesLosses, &p.DoublesWins, &p.DoublesLosses,
		&p.WeeklyPoints, &p.TotalPoints, &p.CurrentStreak, &p.LongestStreak,
		&p.Theme, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresProfileRepository) Create(ctx context.Context, exec SQLExecutor, profile *models.PlayerProfile) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO player_profiles
			(user_id, singles_elo, doubles_elo, peak_singles_elo, peak_doubles_elo, theme_preference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		profile.UserID,
		profile.SinglesElo,
		profile.DoublesElo,
		profile.PeakSinglesElo,
		profile.PeakDoublesElo,
		profile.Theme,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile for user %d: %w", profile.UserID, err)
	}
	return nil
}

func (r *postgresProfileRepository) GetByUserID(ctx context.Context, exec SQLExecutor, userID int) (*models.PlayerProfile, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + profileColumns + ` FROM player_profiles WHERE user_id = $1`
	p, err := scanProfile(executor.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile for user %d: %w", userID, err)
	}
	return p, nil
}

func (r *postgresProfileRepository) LockByUserIDs(ctx context.Context, exec SQLExecutor, userIDs []int) (map[int]*models.PlayerProfile, error) {
	if exec == nil {
		return nil, errors.New("LockByUserIDs requires a transaction executor")
	}

	// Stable lock order prevents deadlocks between overlapping
	// processors.
	ids := make([]int, len(userIDs))
	copy(ids, userIDs)
	sort.Ints(ids)

	profiles := make(map[int]*models.PlayerProfile, len(ids))
	query := `SELECT` + profileColumns + ` FROM player_profiles WHERE user_id = $1 FOR UPDATE`
	for _, id := range ids {
		p, err := scanProfile(exec.QueryRowContext(ctx, query, id))
		if err != nil {
			if errors.Is(err, ErrProfileNotFound) {
				return nil, fmt.Errorf("%w: user %d", ErrProfileNotFound, id)
			}
			return nil, fmt.Errorf("failed to lock profile for user %d: %w", id, err)
		}
		profiles[id] = p
	}
	return profiles, nil
}

func (r *postgresProfileRepository) UpdateAggregates(ctx context.Context, exec SQLExecutor, profile *models.PlayerProfile) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE player_profiles SET
			singles_elo = $1, doubles_elo = $2,
			peak_singles_elo = $3, peak_doubles_elo = $4,
			peak_singles_date = $5, peak_doubles_date = $6,
			singles_games_played = $7, doubles_games_played = $8,
			singles_wins = $9, singles_losses = $10,
			doubles_wins = $11, doubles_losses = $12,
			weekly_points = $13, total_points = $14,
			current_streak = $15, longest_streak = $16,
			updated_at = NOW()
		WHERE id = $17`

	result, err := executor.ExecContext(ctx, query,
		profile.SinglesElo, profile.DoublesElo,
		profile.PeakSinglesElo, profile.PeakDoublesElo,
		profile.PeakSinglesDate, profile.PeakDoublesDate,
		profile.SinglesGamesPlayed, profile.DoublesGamesPlayed,
		profile.SinglesWins, profile.SinglesLosses,
		profile.DoublesWins, profile.DoublesLosses,
		profile.WeeklyPoints, profile.TotalPoints,
		profile.CurrentStreak, profile.LongestStreak,
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update aggregates for profile %d: %w", profile.ID, err)
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) UpdateTheme(ctx context.Context, userID int, theme models.ThemePreference) error {
	query := `UPDATE player_profiles SET theme_preference = $1, updated_at = NOW() WHERE user_id = $2`
	result, err := r.db.ExecContext(ctx, query, theme, userID)
	if err != nil {
		return fmt.Errorf("failed to update theme for user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) ListBySinglesElo(ctx context.Context, limit, offset int) ([]*models.PlayerProfile, error) {
	query := `
		SELECT p.id, p.user_id, p.singles_elo, p.doubles_elo,
		       p.peak_singles_elo, p.peak_doubles_elo, p.peak_singles_date, p.peak_doubles_date,
		       p.singles_games_played, p.doubles_games_played,
		       p.singles_wins, p.singles_losses, p.doubles_wins, p.doubles_losses,
		       p.weekly_points, p.total_points, p.current_streak, p.longest_streak,
		       p.theme_preference, p.created_at, p.updated_at,
		       u.id, u.first_name, u.last_name, u.nickname, u.email, u.role, u.avatar_key, u.created_at
		FROM player_profiles p
		JOIN users u ON p.user_id = u.id
		ORDER BY p.singles_elo DESC, p.user_id ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles by rating: %w", err)
	}
	defer rows.Close()

	profiles := make([]*models.PlayerProfile, 0)
	for rows.Next() {
		var p models.PlayerProfile
		var u models.User
		if scanErr := rows.Scan(
			&p.ID, &p.UserID, &p.SinglesElo, &p.DoublesElo,
			&p.PeakSinglesElo, &p.PeakDoublesElo, &p.PeakSinglesDate, &p.PeakDoublesDate,
			&p.SinglesGamesPlayed, &p.DoublesGamesPlayed,
			&p.SinglesWins, &p.SinglesLosses, &p.DoublesWins, &p.DoublesLosses,
			&p.WeeklyPoints, &p.TotalPoints, &p.CurrentStreak, &p.LongestStreak,
			&p.Theme, &p.CreatedAt, &p.UpdatedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.Email, &u.Role, &u.AvatarKey, &u.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", scanErr)
		}
		p.User = &u
		profiles = append(profiles, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during profile rows iteration: %w", err)
	}
	return profiles, nil
}
