package models

import "time"

type TrophyType string

const (
	TrophyWeeklyWinner TrophyType = "weekly_winner"
	TrophyStreak       TrophyType = "streak"
	TrophyGamesPlayed  TrophyType = "games_played"
	TrophyEloMilestone TrophyType = "elo_milestone"
)

// Trophy is an earned achievement. Awarding is idempotent: the table
// carries a unique constraint over (player_id, trophy_type, value,
// week_number, year), so a repeated award is a no-op. WeekNumber and
// Year are zero for trophies that are not scoped to a week; the key
// columns are NOT NULL so the constraint compares them reliably.
type Trophy struct {
	ID          int        `json:"id" db:"id"`
	PlayerID    int        `json:"player_id" db:"player_id"`
	Type        TrophyType `json:"trophy_type" db:"trophy_type"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Icon        string     `json:"icon" db:"icon"`

	WeekNumber int  `json:"week_number,omitempty" db:"week_number"`
	Year       int  `json:"year,omitempty" db:"year"`
	Value      *int `json:"value,omitempty" db:"value"`

	EarnedAt time.Time `json:"earned_at" db:"earned_at"`
}
