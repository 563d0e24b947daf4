package models

import "time"

// WeeklyStanding accumulates incentive points for one player within one
// ISO week. Rows are created lazily by the first scoring event of the
// week; (player_id, week_number, year) is unique.
type WeeklyStanding struct {
	ID          int  `json:"id" db:"id"`
	PlayerID    int  `json:"player_id" db:"player_id"`
	WeekNumber  int  `json:"week_number" db:"week_number"`
	Year        int  `json:"year" db:"year"`
	Points      int  `json:"points" db:"points"`
	GamesPlayed int  `json:"games_played" db:"games_played"`
	GamesWon    int  `json:"games_won" db:"games_won"`
	Rank        *int `json:"rank,omitempty" db:"rank"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Player *User `json:"player,omitempty" db:"-"`
}
