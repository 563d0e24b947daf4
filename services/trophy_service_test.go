package services

import (
	"context"
	"testing"

	"github.com/TeaBear5/inspyre-ping-pong/models"
	"github.com/TeaBear5/inspyre-ping-pong/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvaluator(awardedByType map[models.TrophyType]map[int]bool) (TrophyService, *[]*models.Trophy) {
	var created []*models.Trophy
	repo := &fakeTrophyRepo{
		ListAwardedValuesFunc: func(ctx context.Context, exec repositories.SQLExecutor, playerID int, trophyType models.TrophyType) (map[int]bool, error) {
			if existing, ok := awardedByType[trophyType]; ok {
				return existing, nil
			}
			return map[int]bool{}, nil
		},
		AwardFunc: func(ctx context.Context, exec repositories.SQLExecutor, trophy *models.Trophy) (bool, error) {
			created = append(created, trophy)
			return true, nil
		},
	}
	return NewTrophyService(repo), &created
}

func TestEvaluateAwardsCrossedMilestones(t *testing.T) {
	svc, created := newEvaluator(nil)

	profile := &models.PlayerProfile{
		UserID:             1,
		SinglesElo:         1450,
		SinglesGamesPlayed: 8,
		DoublesGamesPlayed: 3,
		LongestStreak:      2,
	}

	awarded, err := svc.Evaluate(context.Background(), nil, profile)
	require.NoError(t, err)

	// Two rating milestones (1300, 1400) and one games milestone (10).
	require.Len(t, awarded, 3)
	assert.Equal(t, awarded, *created)

	values := map[models.TrophyType][]int{}
	for _, trophy := range awarded {
		require.NotNil(t, trophy.Value)
		values[trophy.Type] = append(values[trophy.Type], *trophy.Value)
	}
	assert.Equal(t, []int{1300, 1400}, values[models.TrophyEloMilestone])
	assert.Equal(t, []int{10}, values[models.TrophyGamesPlayed])
	assert.Empty(t, values[models.TrophyStreak])
}

func TestEvaluateSkipsAlreadyAwarded(t *testing.T) {
	svc, created := newEvaluator(map[models.TrophyType]map[int]bool{
		models.TrophyEloMilestone: {1300: true, 1400: true},
		models.TrophyGamesPlayed:  {10: true, 25: true},
	})

	profile := &models.PlayerProfile{
		UserID:             1,
		SinglesElo:         1500,
		SinglesGamesPlayed: 30,
	}

	awarded, err := svc.Evaluate(context.Background(), nil, profile)
	require.NoError(t, err)

	require.Len(t, awarded, 1)
	assert.Equal(t, models.TrophyEloMilestone, awarded[0].Type)
	assert.Equal(t, 1500, *awarded[0].Value)
	assert.Len(t, *created, 1)
}

func TestEvaluateOneGameCanCrossMultipleCategories(t *testing.T) {
	svc, _ := newEvaluator(map[models.TrophyType]map[int]bool{
		models.TrophyEloMilestone: {1300: true},
		models.TrophyGamesPlayed:  {10: true},
		models.TrophyStreak:       {3: true},
	})

	profile := &models.PlayerProfile{
		UserID:             5,
		SinglesElo:         1410,
		SinglesGamesPlayed: 20,
		DoublesGamesPlayed: 5,
		LongestStreak:      7,
	}

	awarded, err := svc.Evaluate(context.Background(), nil, profile)
	require.NoError(t, err)

	types := map[models.TrophyType]bool{}
	for _, trophy := range awarded {
		types[trophy.Type] = true
	}
	assert.True(t, types[models.TrophyEloMilestone], "1400 rating milestone due")
	assert.True(t, types[models.TrophyGamesPlayed], "25 games milestone due")
	assert.True(t, types[models.TrophyStreak], "7-day streak milestone due")
}

func TestEvaluateDuplicateConcurrentAwardNotReported(t *testing.T) {
	// The repository reports created=false when the uniqueness key
	// already exists; such trophies must not be announced again.
	repo := &fakeTrophyRepo{
		ListAwardedValuesFunc: func(ctx context.Context, exec repositories.SQLExecutor, playerID int, trophyType models.TrophyType) (map[int]bool, error) {
			return map[int]bool{}, nil
		},
		AwardFunc: func(ctx context.Context, exec repositories.SQLExecutor, trophy *models.Trophy) (bool, error) {
			return false, nil
		},
	}
	svc := NewTrophyService(repo)

	profile := &models.PlayerProfile{UserID: 1, SinglesElo: 1300}
	awarded, err := svc.Evaluate(context.Background(), nil, profile)
	require.NoError(t, err)
	assert.Empty(t, awarded)
}
