package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/TeaBear5/inspyre-ping-pong/models"
	"github.com/TeaBear5/inspyre-ping-pong/rating"
	"github.com/TeaBear5/inspyre-ping-pong/repositories"
)

// MatchProcessor applies a verified game to the participants: new
// ratings, win/loss counters, peak tracking, weekly points, play
// streaks and achievement checks. Process must run inside the same
// transaction that flipped the game to verified, so either everything
// lands or nothing does.
type MatchProcessor interface {
	// Process returns newly awarded trophies keyed by player ID. It is
	// a no-op when the game is not verified or already carries a
	// rating result.
	Process(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) (map[int][]*models.Trophy, error)
}

type matchProcessor struct {
	profileRepo  repositories.ProfileRepository
	gameRepo     repositories.GameRepository
	standingRepo repositories.StandingRepository
	achievements AchievementEvaluator
	logger       *slog.Logger
	now          func() time.Time
}

func NewMatchProcessor(
	profileRepo repositories.ProfileRepository,
	gameRepo repositories.GameRepository,
	standingRepo repositories.StandingRepository,
	achievements AchievementEvaluator,
	logger *slog.Logger,
) MatchProcessor {
	return &matchProcessor{
		profileRepo:  profileRepo,
		gameRepo:     gameRepo,
		standingRepo: standingRepo,
		achievements: achievements,
		logger:       logger,
		now:          time.Now,
	}
}

// sideResult is the per-side view of a game the processor works with:
// who played on the side, the pre-change rating fed to the points
// engine, and whether the side won.
type sideResult struct {
	playerIDs []int
	elo       int
	won       bool
}

func (p *matchProcessor) Process(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) (map[int][]*models.Trophy, error) {
	if game.Status != models.GameStatusVerified {
		return nil, nil
	}
	if game.EloChange != nil {
		// Already processed. Double invocation must not reapply.
		return nil, nil
	}

	profiles, err := p.profileRepo.LockByUserIDs(ctx, exec, game.ParticipantIDs())
	if err != nil {
		return nil, err
	}
	for _, id := range game.ParticipantIDs() {
		if profiles[id] == nil {
			return nil, fmt.Errorf("%w: player %d", ErrProfileMissing, id)
		}
	}

	var side1, side2 sideResult
	switch game.Type {
	case models.GameTypeSingles:
		side1, side2, err = p.applySinglesRatings(ctx, exec, game, profiles)
	case models.GameTypeDoubles:
		side1, side2, err = p.applyDoublesRatings(ctx, exec, game, profiles)
	default:
		return nil, fmt.Errorf("%w: unknown game type %q", ErrValidationFailed, game.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := p.applyPoints(ctx, exec, game, profiles, side1, side2); err != nil {
		return nil, err
	}

	for _, id := range game.ParticipantIDs() {
		if err := p.recomputeStreak(ctx, exec, profiles[id], game.PlayedAt); err != nil {
			return nil, err
		}
	}

	awarded := make(map[int][]*models.Trophy)
	for _, id := range game.ParticipantIDs() {
		profile := profiles[id]
		if err := p.profileRepo.UpdateAggregates(ctx, exec, profile); err != nil {
			return nil, err
		}
		trophies, err := p.achievements.Evaluate(ctx, exec, profile)
		if err != nil {
			return nil, err
		}
		if len(trophies) > 0 {
			awarded[id] = trophies
		}
	}

	p.logger.Info("game processed",
		slog.Int("game_id", game.ID),
		slog.String("game_type", string(game.Type)),
		slog.Int("elo_change", *game.EloChange),
	)
	return awarded, nil
}

func (p *matchProcessor) applySinglesRatings(ctx context.Context, exec repositories.SQLExecutor, game *models.Game, profiles map[int]*models.PlayerProfile) (sideResult, sideResult, error) {
	p1 := profiles[*game.Player1ID]
	p2 := profiles[*game.Player2ID]

	side1Won := game.Winner == models.WinnerSide1
	score1 := 0.0
	if side1Won {
		score1 = 1.0
	}

	before1, before2 := p1.SinglesElo, p2.SinglesElo
	new1, new2, change := rating.UpdatePair(before1, before2, score1, p1.SinglesGamesPlayed, p2.SinglesGamesPlayed)

	game.Side1EloBefore = &before1
	game.Side2EloBefore = &before2
	game.Side1EloAfter = &new1
	game.Side2EloAfter = &new2
	game.EloChange = &change
	if err := p.gameRepo.UpdateRatingResult(ctx, exec, game); err != nil {
		return sideResult{}, sideResult{}, err
	}

	p1.SinglesElo = new1
	p2.SinglesElo = new2
	p1.SinglesGamesPlayed++
	p2.SinglesGamesPlayed++
	if side1Won {
		p1.SinglesWins++
		p2.SinglesLosses++
	} else {
		p2.SinglesWins++
		p1.SinglesLosses++
	}
	p.trackSinglesPeak(p1)
	p.trackSinglesPeak(p2)

	return sideResult{playerIDs: []int{p1.UserID}, elo: before1, won: side1Won},
		sideResult{playerIDs: []int{p2.UserID}, elo: before2, won: !side1Won},
		nil
}

func (p *matchProcessor) applyDoublesRatings(ctx context.Context, exec repositories.SQLExecutor, game *models.Game, profiles map[int]*models.PlayerProfile) (sideResult, sideResult, error) {
	t1a := profiles[*game.Team1Player1ID]
	t1b := profiles[*game.Team1Player2ID]
	t2a := profiles[*game.Team2Player1ID]
	t2b := profiles[*game.Team2Player2ID]

	team1Won := game.Winner == models.WinnerTeam1
	team1Ratings := [2]int{t1a.DoublesElo, t1b.DoublesElo}
	team2Ratings := [2]int{t2a.DoublesElo, t2b.DoublesElo}
	team1Games := [2]int{t1a.DoublesGamesPlayed, t1b.DoublesGamesPlayed}
	team2Games := [2]int{t2a.DoublesGamesPlayed, t2b.DoublesGamesPlayed}

	update := rating.UpdateTeams(team1Ratings, team2Ratings, team1Won, team1Games, team2Games)

	// The game row records team averages; per-player ratings go to the
	// profiles.
	before1 := teamAverage(team1Ratings)
	before2 := teamAverage(team2Ratings)
	after1 := teamAverage(update.Team1)
	after2 := teamAverage(update.Team2)
	game.Side1EloBefore = &before1
	game.Side2EloBefore = &before2
	game.Side1EloAfter = &after1
	game.Side2EloAfter = &after2
	game.EloChange = &update.Change
	if err := p.gameRepo.UpdateRatingResult(ctx, exec, game); err != nil {
		return sideResult{}, sideResult{}, err
	}

	t1a.DoublesElo, t1b.DoublesElo = update.Team1[0], update.Team1[1]
	t2a.DoublesElo, t2b.DoublesElo = update.Team2[0], update.Team2[1]
	for _, profile := range []*models.PlayerProfile{t1a, t1b, t2a, t2b} {
		profile.DoublesGamesPlayed++
	}
	winners, losers := []*models.PlayerProfile{t1a, t1b}, []*models.PlayerProfile{t2a, t2b}
	if !team1Won {
		winners, losers = losers, winners
	}
	for _, profile := range winners {
		profile.DoublesWins++
	}
	for _, profile := range losers {
		profile.DoublesLosses++
	}
	for _, profile := range []*models.PlayerProfile{t1a, t1b, t2a, t2b} {
		p.trackDoublesPeak(profile)
	}

	return sideResult{playerIDs: []int{t1a.UserID, t1b.UserID}, elo: before1, won: team1Won},
		sideResult{playerIDs: []int{t2a.UserID, t2b.UserID}, elo: before2, won: !team1Won},
		nil
}

func teamAverage(ratings [2]int) int {
	return int(math.Round(float64(ratings[0]+ratings[1]) / 2))
}

func (p *matchProcessor) trackSinglesPeak(profile *models.PlayerProfile) {
	if profile.SinglesElo > profile.PeakSinglesElo {
		profile.PeakSinglesElo = profile.SinglesElo
		now := p.now()
		profile.PeakSinglesDate = &now
	}
}

func (p *matchProcessor) trackDoublesPeak(profile *models.PlayerProfile) {
	if profile.DoublesElo > profile.PeakDoublesElo {
		profile.PeakDoublesElo = profile.DoublesElo
		now := p.now()
		profile.PeakDoublesDate = &now
	}
}

// applyPoints computes incentive points from the pre-change ratings and
// each winner's streak as it stood before this game, then credits the
// weekly standings and profile point totals.
func (p *matchProcessor) applyPoints(ctx context.Context, exec repositories.SQLExecutor, game *models.Game, profiles map[int]*models.PlayerProfile, side1, side2 sideResult) error {
	winner, loser := side1, side2
	if side2.won {
		winner, loser = side2, side1
	}

	year, week := game.PlayedAt.ISOWeek()

	for _, id := range winner.playerIDs {
		profile := profiles[id]
		winnerPoints, _ := rating.GamePoints(winner.elo, loser.elo, profile.CurrentStreak)
		profile.WeeklyPoints += winnerPoints
		profile.TotalPoints += winnerPoints
		if err := p.standingRepo.AddResult(ctx, exec, id, week, year, winnerPoints, true); err != nil {
			return err
		}
	}
	for _, id := range loser.playerIDs {
		profile := profiles[id]
		_, loserPoints := rating.GamePoints(winner.elo, loser.elo, 0)
		profile.WeeklyPoints += loserPoints
		profile.TotalPoints += loserPoints
		if err := p.standingRepo.AddResult(ctx, exec, id, week, year, loserPoints, false); err != nil {
			return err
		}
	}
	return nil
}

// recomputeStreak re-derives the consecutive-day play streak from the
// verified game history instead of trusting only the cached counter, so
// it tolerates out-of-order processing. The game under processing is
// already verified in this transaction, so "played today" includes it.
func (p *matchProcessor) recomputeStreak(ctx context.Context, exec repositories.SQLExecutor, profile *models.PlayerProfile, day time.Time) error {
	playedToday, err := p.gameRepo.HasVerifiedPlayedOn(ctx, exec, profile.UserID, day)
	if err != nil {
		return err
	}
	if !playedToday {
		return nil
	}

	previous, err := p.gameRepo.LastVerifiedPlayedBefore(ctx, exec, profile.UserID, day)
	if err != nil {
		return err
	}
	if previous != nil && sameDay(previous.AddDate(0, 0, 1), day) {
		profile.CurrentStreak++
	} else {
		profile.CurrentStreak = 1
	}
	if profile.CurrentStreak > profile.LongestStreak {
		profile.LongestStreak = profile.CurrentStreak
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
