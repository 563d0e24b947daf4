package rating

import "sort"

// Weekly incentive point values. Policy numbers, not structure.
const (
	PointsPerGame     = 10 // participation, both sides
	PointsPerWin      = 20
	PointsUpsetBonus  = 30 // beating someone rated UpsetGap or more higher
	PointsStreakBonus = 5  // per day of the winner's current streak
	StreakBonusCap    = 50
	UpsetGap          = 200
)

// GamePoints computes the incentive points earned from a single game.
// Ratings are the pre-game values and currentStreak is the winner's
// streak before this game's streak update.
func GamePoints(winnerElo, loserElo, currentStreak int) (winnerPoints, loserPoints int) {
	winnerPoints = PointsPerGame + PointsPerWin

	if loserElo-winnerElo >= UpsetGap {
		winnerPoints += PointsUpsetBonus
	}

	if currentStreak > 0 {
		bonus := currentStreak * PointsStreakBonus
		if bonus > StreakBonusCap {
			bonus = StreakBonusCap
		}
		winnerPoints += bonus
	}

	loserPoints = PointsPerGame
	return winnerPoints, loserPoints
}

// PointsEntry is one (player, points) pair to be ranked.
type PointsEntry struct {
	PlayerID int
	Points   int
}

// RankedEntry is a PointsEntry with its computed rank.
type RankedEntry struct {
	PlayerID int
	Points   int
	Rank     int
}

// Rank sorts entries by points descending and assigns standard
// competition ranks: tied scores share a rank, and the next distinct
// score gets its 1-based position in the sorted order (1, 1, 3 rather
// than 1, 1, 2). The sort is stable, so exact ties keep input order.
func Rank(entries []PointsEntry) []RankedEntry {
	sorted := make([]PointsEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Points > sorted[j].Points
	})

	ranked := make([]RankedEntry, 0, len(sorted))
	currentRank := 1
	for i, e := range sorted {
		if i > 0 && e.Points < sorted[i-1].Points {
			currentRank = i + 1
		}
		ranked = append(ranked, RankedEntry{PlayerID: e.PlayerID, Points: e.Points, Rank: currentRank})
	}
	return ranked
}
