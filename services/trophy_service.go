package services

import (
	"context"
	"fmt"

	"github.com/TeaBear5/inspyre-ping-pong/models"
	"github.com/TeaBear5/inspyre-ping-pong/repositories"
)

// Milestone tables. Policy values kept as explicit data so instances
// can tune them without touching the evaluation logic.
var (
	EloMilestones    = []int{1300, 1400, 1500, 1600, 1700, 1800, 1900, 2000, 2200, 2500}
	GamesMilestones  = []int{10, 25, 50, 100, 250, 500, 1000}
	StreakMilestones = []int{3, 7, 14, 30}
)

// AchievementEvaluator awards milestone trophies after a participant's
// aggregates change. Awarding relies on the unique award key in the
// trophies table, so a concurrent duplicate attempt collapses into the
// existing row rather than failing.
type AchievementEvaluator interface {
	Evaluate(ctx context.Context, exec repositories.SQLExecutor, profile *models.PlayerProfile) ([]*models.Trophy, error)
}

// TrophyService exposes trophy reads on top of the evaluator.
type TrophyService interface {
	AchievementEvaluator
	ListByPlayer(ctx context.Context, playerID int) ([]*models.Trophy, error)
}

type trophyService struct {
	trophyRepo repositories.TrophyRepository
}

func NewTrophyService(trophyRepo repositories.TrophyRepository) TrophyService {
	return &trophyService{trophyRepo: trophyRepo}
}

// Evaluate checks every milestone category against the current
// aggregate snapshot. Each category is evaluated independently: one
// game can cross several thresholds at once and all due trophies are
// awarded in the same pass.
func (s *trophyService) Evaluate(ctx context.Context, exec repositories.SQLExecutor, profile *models.PlayerProfile) ([]*models.Trophy, error) {
	var awarded []*models.Trophy

	categories := []struct {
		trophyType models.TrophyType
		current    int
		milestones []int
		build      func(value int) *models.Trophy
	}{
		{
			trophyType: models.TrophyEloMilestone,
			current:    profile.SinglesElo,
			milestones: EloMilestones,
			build: func(value int) *models.Trophy {
				return &models.Trophy{
					PlayerID:    profile.UserID,
					Type:        models.TrophyEloMilestone,
					Name:        fmt.Sprintf("%d ELO Club", value),
					Description: fmt.Sprintf("Reached a singles rating of %d", value),
					Icon:        "🏓",
				}
			},
		},
		{
			trophyType: models.TrophyGamesPlayed,
			current:    profile.SinglesGamesPlayed + profile.DoublesGamesPlayed,
			milestones: GamesMilestones,
			build: func(value int) *models.Trophy {
				return &models.Trophy{
					PlayerID:    profile.UserID,
					Type:        models.TrophyGamesPlayed,
					Name:        fmt.Sprintf("%d Games Veteran", value),
					Description: fmt.Sprintf("Played %d verified games", value),
					Icon:        "🎖️",
				}
			},
		},
		{
			trophyType: models.TrophyStreak,
			current:    profile.LongestStreak,
			milestones: StreakMilestones,
			build: func(value int) *models.Trophy {
				return &models.Trophy{
					PlayerID:    profile.UserID,
					Type:        models.TrophyStreak,
					Name:        fmt.Sprintf("%d-Day Streak", value),
					Description: fmt.Sprintf("Played on %d consecutive days", value),
					Icon:        "🔥",
				}
			},
		},
	}

	for _, category := range categories {
		existing, err := s.trophyRepo.ListAwardedValues(ctx, exec, profile.UserID, category.trophyType)
		if err != nil {
			return nil, err
		}
		for _, milestone := range category.milestones {
			if category.current < milestone || existing[milestone] {
				continue
			}
			trophy := category.build(milestone)
			value := milestone
			trophy.Value = &value
			created, err := s.trophyRepo.Award(ctx, exec, trophy)
			if err != nil {
				return nil, err
			}
			if created {
				awarded = append(awarded, trophy)
			}
		}
	}

	return awarded, nil
}

func (s *trophyService) ListByPlayer(ctx context.Context, playerID int) ([]*models.Trophy, error) {
	return s.trophyRepo.ListByPlayer(ctx, playerID)
}
