package models

import "time"

// DefaultElo is the rating every profile starts from in both modes.
const DefaultElo = 1200

type ThemePreference string

const (
	ThemeLight ThemePreference = "light"
	ThemeDark  ThemePreference = "dark"
)

// PlayerProfile holds the per-player rating and points aggregates.
// It is owned by the match processor: all rating, counter, points and
// streak mutations go through it inside a single transaction.
type PlayerProfile struct {
	ID     int `json:"id" db:"id"`
	UserID int `json:"user_id" db:"user_id"`

	SinglesElo int `json:"singles_elo" db:"singles_elo"`
	DoublesElo int `json:"doubles_elo" db:"doubles_elo"`

	PeakSinglesElo  int        `json:"peak_singles_elo" db:"peak_singles_elo"`
	PeakDoublesElo  int        `json:"peak_doubles_elo" db:"peak_doubles_elo"`
	PeakSinglesDate *time.Time `json:"peak_singles_date,omitempty" db:"peak_singles_date"`
	PeakDoublesDate *time.Time `json:"peak_doubles_date,omitempty" db:"peak_doubles_date"`

	SinglesGamesPlayed int `json:"singles_games_played" db:"singles_games_played"`
	DoublesGamesPlayed int `json:"doubles_games_played" db:"doubles_games_played"`
	SinglesWins        int `json:"singles_wins" db:"singles_wins"`
	SinglesLosses      int `json:"singles_losses" db:"singles_losses"`
	DoublesWins        int `json:"doubles_wins" db:"doubles_wins"`
	DoublesLosses      int `json:"doubles_losses" db:"doubles_losses"`

	WeeklyPoints  int `json:"weekly_points" db:"weekly_points"`
	TotalPoints   int `json:"total_points" db:"total_points"`
	CurrentStreak int `json:"current_streak" db:"current_streak"`
	LongestStreak int `json:"longest_streak" db:"longest_streak"`

	Theme ThemePreference `json:"theme_preference" db:"theme_preference"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Optional linked data, populated by the service layer.
	User *User `json:"user,omitempty" db:"-"`
}

func (p *PlayerProfile) SinglesWinRate() float64 {
	if p.SinglesGamesPlayed == 0 {
		return 0
	}
	return float64(p.SinglesWins) / float64(p.SinglesGamesPlayed) * 100
}

func (p *PlayerProfile) DoublesWinRate() float64 {
	if p.DoublesGamesPlayed == 0 {
		return 0
	}
	return float64(p.DoublesWins) / float64(p.DoublesGamesPlayed) * 100
}
