package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGamePoints(t *testing.T) {
	tests := []struct {
		name       string
		winnerElo  int
		loserElo   int
		streak     int
		wantWinner int
		wantLoser  int
	}{
		{
			name:       "plain win",
			winnerElo:  1500,
			loserElo:   1400,
			streak:     0,
			wantWinner: 30,
			wantLoser:  10,
		},
		{
			name:       "upset bonus at exactly 200 gap",
			winnerElo:  1200,
			loserElo:   1400,
			streak:     0,
			wantWinner: 60,
			wantLoser:  10,
		},
		{
			name:       "upset bonus above gap",
			winnerElo:  1200,
			loserElo:   1450,
			streak:     0,
			wantWinner: 60,
			wantLoser:  10,
		},
		{
			name:       "no upset bonus just under gap",
			winnerElo:  1201,
			loserElo:   1400,
			streak:     0,
			wantWinner: 30,
			wantLoser:  10,
		},
		{
			name:       "streak bonus",
			winnerElo:  1500,
			loserElo:   1200,
			streak:     4,
			wantWinner: 50,
			wantLoser:  10,
		},
		{
			name:       "streak bonus capped at 50",
			winnerElo:  1500,
			loserElo:   1200,
			streak:     20,
			wantWinner: 80,
			wantLoser:  10,
		},
		{
			name:       "upset and streak stack",
			winnerElo:  1100,
			loserElo:   1400,
			streak:     2,
			wantWinner: 70,
			wantLoser:  10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, loser := GamePoints(tt.winnerElo, tt.loserElo, tt.streak)
			assert.Equal(t, tt.wantWinner, winner)
			assert.Equal(t, tt.wantLoser, loser)
		})
	}
}

func TestRankStandardCompetition(t *testing.T) {
	ranked := Rank([]PointsEntry{
		{PlayerID: 1, Points: 100},
		{PlayerID: 2, Points: 100},
		{PlayerID: 3, Points: 90},
	})

	assert.Equal(t, []RankedEntry{
		{PlayerID: 1, Points: 100, Rank: 1},
		{PlayerID: 2, Points: 100, Rank: 1},
		{PlayerID: 3, Points: 90, Rank: 3},
	}, ranked)
}

func TestRankSortsDescending(t *testing.T) {
	ranked := Rank([]PointsEntry{
		{PlayerID: 1, Points: 10},
		{PlayerID: 2, Points: 40},
		{PlayerID: 3, Points: 25},
	})

	assert.Equal(t, 2, ranked[0].PlayerID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 3, ranked[1].PlayerID)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, 1, ranked[2].PlayerID)
	assert.Equal(t, 3, ranked[2].Rank)
}

func TestRankStableAmongTies(t *testing.T) {
	ranked := Rank([]PointsEntry{
		{PlayerID: 7, Points: 55},
		{PlayerID: 3, Points: 55},
		{PlayerID: 9, Points: 55},
	})

	assert.Equal(t, []int{7, 3, 9}, []int{ranked[0].PlayerID, ranked[1].PlayerID, ranked[2].PlayerID})
	for _, r := range ranked {
		assert.Equal(t, 1, r.Rank)
	}
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}
