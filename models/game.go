package models

import "time"

type GameType string

const (
	GameTypeSingles GameType = "singles"
	GameTypeDoubles GameType = "doubles"
)

type GameStatus string

const (
	GameStatusPending   GameStatus = "pending"
	GameStatusVerified  GameStatus = "verified"
	GameStatusDisputed  GameStatus = "disputed"
	GameStatusResolved  GameStatus = "resolved"
	GameStatusCancelled GameStatus = "cancelled"
)

// Winner tokens. Singles results use side1/side2, doubles use team1/team2.
const (
	WinnerSide1 = "side1"
	WinnerSide2 = "side2"
	WinnerTeam1 = "team1"
	WinnerTeam2 = "team2"
)

// Game is one reported result. It is created in pending state and only
// mutated through the state machine in the game service. Once a game
// reaches a terminal state the rating fields are never touched again.
type Game struct {
	ID     int        `json:"id" db:"id"`
	Type   GameType   `json:"game_type" db:"game_type"`
	Status GameStatus `json:"status" db:"status"`

	// Singles sides.
	Player1ID *int `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID *int `json:"player2_id,omitempty" db:"player2_id"`

	// Doubles teams.
	Team1Player1ID *int `json:"team1_player1_id,omitempty" db:"team1_player1_id"`
	Team1Player2ID *int `json:"team1_player2_id,omitempty" db:"team1_player2_id"`
	Team2Player1ID *int `json:"team2_player1_id,omitempty" db:"team2_player1_id"`
	Team2Player2ID *int `json:"team2_player2_id,omitempty" db:"team2_player2_id"`

	Side1Score int    `json:"side1_score" db:"side1_score"`
	Side2Score int    `json:"side2_score" db:"side2_score"`
	Winner     string `json:"winner" db:"winner"`

	ReportedByID    int     `json:"reported_by_id" db:"reported_by_id"`
	VerifiedByID    *int    `json:"verified_by_id,omitempty" db:"verified_by_id"`
	DisputedByID    *int    `json:"disputed_by_id,omitempty" db:"disputed_by_id"`
	DisputeReason   *string `json:"dispute_reason,omitempty" db:"dispute_reason"`
	ResolvedByID    *int    `json:"resolved_by_id,omitempty" db:"resolved_by_id"`
	ResolutionNotes *string `json:"resolution_notes,omitempty" db:"resolution_notes"`

	PlayedAt   time.Time  `json:"played_at" db:"played_at"`
	ReportedAt time.Time  `json:"reported_at" db:"reported_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	DisputedAt *time.Time `json:"disputed_at,omitempty" db:"disputed_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`

	// Rating snapshot, filled by the match processor when the game is
	// processed. For doubles these hold the team-average values.
	Side1EloBefore *int `json:"side1_elo_before,omitempty" db:"side1_elo_before"`
	Side2EloBefore *int `json:"side2_elo_before,omitempty" db:"side2_elo_before"`
	Side1EloAfter  *int `json:"side1_elo_after,omitempty" db:"side1_elo_after"`
	Side2EloAfter  *int `json:"side2_elo_after,omitempty" db:"side2_elo_after"`
	EloChange      *int `json:"elo_change,omitempty" db:"elo_change"`

	Notes *string `json:"notes,omitempty" db:"notes"`
}

// ParticipantIDs returns all player IDs involved in the game.
func (g *Game) ParticipantIDs() []int {
	var ids []int
	for _, p := range []*int{
		g.Player1ID, g.Player2ID,
		g.Team1Player1ID, g.Team1Player2ID, g.Team2Player1ID, g.Team2Player2ID,
	} {
		if p != nil {
			ids = append(ids, *p)
		}
	}
	return ids
}

// ReportingTeam reports which doubles team the reporter played on.
func (g *Game) ReportingTeam() string {
	if g.Type != GameTypeDoubles {
		return ""
	}
	if (g.Team1Player1ID != nil && *g.Team1Player1ID == g.ReportedByID) ||
		(g.Team1Player2ID != nil && *g.Team1Player2ID == g.ReportedByID) {
		return WinnerTeam1
	}
	return WinnerTeam2
}

// IsCounterpart reports whether userID occupies the counterpart role:
// the non-reporting player in singles, any player of the non-reporting
// team in doubles.
func (g *Game) IsCounterpart(userID int) bool {
	if userID == g.ReportedByID {
		return false
	}
	switch g.Type {
	case GameTypeSingles:
		return (g.Player1ID != nil && *g.Player1ID == userID) ||
			(g.Player2ID != nil && *g.Player2ID == userID)
	case GameTypeDoubles:
		if g.ReportingTeam() == WinnerTeam1 {
			return (g.Team2Player1ID != nil && *g.Team2Player1ID == userID) ||
				(g.Team2Player2ID != nil && *g.Team2Player2ID == userID)
		}
		return (g.Team1Player1ID != nil && *g.Team1Player1ID == userID) ||
			(g.Team1Player2ID != nil && *g.Team1Player2ID == userID)
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s GameStatus) IsTerminal() bool {
	return s == GameStatusVerified || s == GameStatusResolved || s == GameStatusCancelled
}
