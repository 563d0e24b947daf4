// Package rating holds the pure calculation core: Elo updates for
// singles and doubles games and the weekly incentive points rules.
// Nothing in this package touches storage.
package rating

import "math"

// K-factor buckets and thresholds.
const (
	KFactorNew  = 40 // players with fewer than NewPlayerGames games
	KFactorMid  = 32 // established players rated below HighRatingThreshold
	KFactorHigh = 24 // established players at or above HighRatingThreshold

	NewPlayerGames      = 30
	HighRatingThreshold = 2400
)

// DoublesFactor damps individual rating swings in doubles games to
// account for partner influence.
const DoublesFactor = 0.75

// ExpectedScore returns the probability of the first player winning,
// per the standard logistic curve. ExpectedScore(a, b) + ExpectedScore(b, a) == 1.
func ExpectedScore(ratingA, ratingB int) float64 {
	return 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/400))
}

// KFactor picks the K-factor for a player. New players converge faster,
// high-rated players move slower.
func KFactor(rating, gamesPlayed int) int {
	switch {
	case gamesPlayed < NewPlayerGames:
		return KFactorNew
	case rating < HighRatingThreshold:
		return KFactorMid
	default:
		return KFactorHigh
	}
}

// UpdatePair computes new ratings for a singles game. scoreA is the
// actual score of the first player: 1 for a win, 0 for a loss, 0.5 for
// a draw. Each side's delta uses its own K-factor. Deltas are rounded
// half away from zero and the resulting ratings are floored at 0.
//
// The returned change is the rounded magnitude of the first player's
// delta; when the K-factors differ it is not necessarily equal to the
// second player's movement.
func UpdatePair(ratingA, ratingB int, scoreA float64, gamesA, gamesB int) (newRatingA, newRatingB, change int) {
	expectedA := ExpectedScore(ratingA, ratingB)
	expectedB := 1 - expectedA
	scoreB := 1 - scoreA

	changeA := float64(KFactor(ratingA, gamesA)) * (scoreA - expectedA)
	changeB := float64(KFactor(ratingB, gamesB)) * (scoreB - expectedB)

	newRatingA = clampRating(ratingA + roundDelta(changeA))
	newRatingB = clampRating(ratingB + roundDelta(changeB))
	change = abs(roundDelta(changeA))
	return newRatingA, newRatingB, change
}

// TeamUpdate is the outcome of a doubles game for all four players.
type TeamUpdate struct {
	Team1 [2]int // new ratings for team 1 players
	Team2 [2]int // new ratings for team 2 players

	// Change is a representative magnitude for display, computed from
	// the K-factor of the team-average rating rather than any single
	// player. It is a summary value, not a per-player truth.
	Change int
}

// UpdateTeams computes new ratings for a doubles game. The expected
// score is shared per team, derived from the arithmetic mean of the
// team ratings; each player's delta then uses their own K-factor,
// damped by DoublesFactor. Ratings are floored at 0.
func UpdateTeams(team1Ratings, team2Ratings [2]int, team1Won bool, team1Games, team2Games [2]int) TeamUpdate {
	avgTeam1 := float64(team1Ratings[0]+team1Ratings[1]) / 2
	avgTeam2 := float64(team2Ratings[0]+team2Ratings[1]) / 2

	expectedTeam1 := 1 / (1 + math.Pow(10, (avgTeam2-avgTeam1)/400))
	expectedTeam2 := 1 - expectedTeam1

	actualTeam1 := 0.0
	if team1Won {
		actualTeam1 = 1.0
	}
	actualTeam2 := 1 - actualTeam1

	var out TeamUpdate
	for i, r := range team1Ratings {
		k := float64(KFactor(r, team1Games[i]))
		delta := k * (actualTeam1 - expectedTeam1) * DoublesFactor
		out.Team1[i] = clampRating(r + roundDelta(delta))
	}
	for i, r := range team2Ratings {
		k := float64(KFactor(r, team2Games[i]))
		delta := k * (actualTeam2 - expectedTeam2) * DoublesFactor
		out.Team2[i] = clampRating(r + roundDelta(delta))
	}

	// Established-player game count so only the rating bucket matters.
	avgK := float64(KFactor(int(math.Round(avgTeam1)), 100))
	out.Change = abs(roundDelta(avgK * (actualTeam1 - expectedTeam1) * DoublesFactor))
	return out
}

// roundDelta rounds half away from zero, matching math.Round. The rule
// is pinned by tests: a raw delta of +0.5 becomes +1, -0.5 becomes -1.
func roundDelta(delta float64) int {
	return int(math.Round(delta))
}

func clampRating(r int) int {
	if r < 0 {
		return 0
	}
	return r
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
