package services

import (
	"context"
	"time"

	"github.com/TeaBear5/inspyre-ping-pong/models"
	"github.com/TeaBear5/inspyre-ping-pong/repositories"
)

// Function-field fakes for the repository interfaces. Tests set only
// the calls they expect; an unexpected call panics on the nil field.

type fakeGameRepo struct {
	CreateFunc                   func(ctx context.Context, game *models.Game) error
	GetByIDFunc                  func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error)
	GetByIDForUpdateFunc         func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error)
	UpdateStatusVerifiedFunc     func(ctx context.Context, exec repositories.SQLExecutor, id, verifierID int, at time.Time) error
	UpdateStatusDisputedFunc     func(ctx context.Context, id, disputerID int, reason string, at time.Time) error
	UpdateStatusResolvedFunc     func(ctx context.Context, id, resolverID int, notes string, at time.Time) error
	UpdateStatusCancelledFunc    func(ctx context.Context, id int) error
	UpdateRatingResultFunc       func(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error
	ListByPlayerFunc             func(ctx context.Context, playerID int, status *models.GameStatus, limit int) ([]*models.Game, error)
	ListPendingInvolvingFunc     func(ctx context.Context, userID int) ([]*models.Game, error)
	LastVerifiedPlayedBeforeFunc func(ctx context.Context, exec repositories.SQLExecutor, playerID int, day time.Time) (*time.Time, error)
	HasVerifiedPlayedOnFunc      func(ctx context.Context, exec repositories.SQLExecutor, playerID int, day time.Time) (bool, error)
}

func (f *fakeGameRepo) Create(ctx context.Context, game *models.Game) error {
	return f.CreateFunc(ctx, game)
}

func (f *fakeGameRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
	return f.GetByIDFunc(ctx, exec, id)
}

func (f *fakeGameRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
	return f.GetByIDForUpdateFunc(ctx, exec, id)
}

func (f *fakeGameRepo) UpdateStatusVerified(ctx context.Context, exec repositories.SQLExecutor, id, verifierID int, at time.Time) error {
	return f.UpdateStatusVerifiedFunc(ctx, exec, id, verifierID, at)
}

func (f *fakeGameRepo) UpdateStatusDisputed(ctx context.Context, id, disputerID int, reason string, at time.Time) error {
	return f.UpdateStatusDisputedFunc(ctx, id, disputerID, reason, at)
}

func (f *fakeGameRepo) UpdateStatusResolved(ctx context.Context, id, resolverID int, notes string, at time.Time) error {
	return f.UpdateStatusResolvedFunc(ctx, id, resolverID, notes, at)
}

func (f *fakeGameRepo) UpdateStatusCancelled(ctx context.Context, id int) error {
	return f.UpdateStatusCancelledFunc(ctx, id)
}

func (f *fakeGameRepo) UpdateRatingResult(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error {
	return f.UpdateRatingResultFunc(ctx, exec, game)
}

func (f *fakeGameRepo) ListByPlayer(ctx context.Context, playerID int, status *models.GameStatus, limit int) ([]*models.Game, error) {
	return f.ListByPlayerFunc(ctx, playerID, status, limit)
}

func (f *fakeGameRepo) ListPendingInvolving(ctx context.Context, userID int) ([]*models.Game, error) {
	return f.ListPendingInvolvingFunc(ctx, userID)
}

func (f *fakeGameRepo) LastVerifiedPlayedBefore(ctx context.Context, exec repositories.SQLExecutor, playerID int, day time.Time) (*time.Time, error) {
	return f.LastVerifiedPlayedBeforeFunc(ctx, exec, playerID, day)
}

func (f *fakeGameRepo) HasVerifiedPlayedOn(ctx context.Context, exec repositories.SQLExecutor, playerID int, day time.Time) (bool, error) {
	return f.HasVerifiedPlayedOnFunc(ctx, exec, playerID, day)
}

type fakeProfileRepo struct {
	CreateFunc           func(ctx context.Context, exec repositories.SQLExecutor, profile *models.PlayerProfile) error
	GetByUserIDFunc      func(ctx context.Context, exec repositories.SQLExecutor, userID int) (*models.PlayerProfile, error)
	LockByUserIDsFunc    func(ctx context.Context, exec repositories.SQLExecutor, userIDs []int) (map[int]*models.PlayerProfile, error)
	UpdateAggregatesFunc func(ctx context.Context, exec repositories.SQLExecutor, profile *models.PlayerProfile) error
	UpdateThemeFunc      func(ctx context.Context, userID int, theme models.ThemePreference) error
	ListBySinglesEloFunc func(ctx context.Context, limit, offset int) ([]*models.PlayerProfile, error)
}

func (f *fakeProfileRepo) Create(ctx context.Context, exec repositories.SQLExecutor, profile *models.PlayerProfile) error {
	return f.CreateFunc(ctx, exec, profile)
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, exec repositories.SQLExecutor, userID int) (*models.PlayerProfile, error) {
	return f.GetByUserIDFunc(ctx, exec, userID)
}

func (f *fakeProfileRepo) LockByUserIDs(ctx context.Context, exec repositories.SQLExecutor, userIDs []int) (map[int]*models.PlayerProfile, error) {
	return f.LockByUserIDsFunc(ctx, exec, userIDs)
}

func (f *fakeProfileRepo) UpdateAggregates(ctx context.Context, exec repositories.SQLExecutor, profile *models.PlayerProfile) error {
	return f.UpdateAggregatesFunc(ctx, exec, profile)
}

func (f *fakeProfileRepo) UpdateTheme(ctx context.Context, userID int, theme models.ThemePreference) error {
	return f.UpdateThemeFunc(ctx, userID, theme)
}

func (f *fakeProfileRepo) ListBySinglesElo(ctx context.Context, limit, offset int) ([]*models.PlayerProfile, error) {
	return f.ListBySinglesEloFunc(ctx, limit, offset)
}

type fakeStandingRepo struct {
	AddResultFunc  func(ctx context.Context, exec repositories.SQLExecutor, playerID, weekNumber, year, points int, won bool) error
	ListByWeekFunc func(ctx context.Context, weekNumber, year int) ([]*models.WeeklyStanding, error)
	UpdateRankFunc func(ctx context.Context, exec repositories.SQLExecutor, standingID, rank int) error
}

func (f *fakeStandingRepo) AddResult(ctx context.Context, exec repositories.SQLExecutor, playerID, weekNumber, year, points int, won bool) error {
	return f.AddResultFunc(ctx, exec, playerID, weekNumber, year, points, won)
}

func (f *fakeStandingRepo) ListByWeek(ctx context.Context, weekNumber, year int) ([]*models.WeeklyStanding, error) {
	return f.ListByWeekFunc(ctx, weekNumber, year)
}

func (f *fakeStandingRepo) UpdateRank(ctx context.Context, exec repositories.SQLExecutor, standingID, rank int) error {
	return f.UpdateRankFunc(ctx, exec, standingID, rank)
}

type fakeTrophyRepo struct {
	AwardFunc             func(ctx context.Context, exec repositories.SQLExecutor, trophy *models.Trophy) (bool, error)
	ListByPlayerFunc      func(ctx context.Context, playerID int) ([]*models.Trophy, error)
	ListAwardedValuesFunc func(ctx context.Context, exec repositories.SQLExecutor, playerID int, trophyType models.TrophyType) (map[int]bool, error)
}

func (f *fakeTrophyRepo) Award(ctx context.Context, exec repositories.SQLExecutor, trophy *models.Trophy) (bool, error) {
	return f.AwardFunc(ctx, exec, trophy)
}

func (f *fakeTrophyRepo) ListByPlayer(ctx context.Context, playerID int) ([]*models.Trophy, error) {
	return f.ListByPlayerFunc(ctx, playerID)
}

func (f *fakeTrophyRepo) ListAwardedValues(ctx context.Context, exec repositories.SQLExecutor, playerID int, trophyType models.TrophyType) (map[int]bool, error) {
	return f.ListAwardedValuesFunc(ctx, exec, playerID, trophyType)
}

type fakeAchievementEvaluator struct {
	EvaluateFunc func(ctx context.Context, exec repositories.SQLExecutor, profile *models.PlayerProfile) ([]*models.Trophy, error)
}

func (f *fakeAchievementEvaluator) Evaluate(ctx context.Context, exec repositories.SQLExecutor, profile *models.PlayerProfile) ([]*models.Trophy, error) {
	if f.EvaluateFunc == nil {
		return nil, nil
	}
	return f.EvaluateFunc(ctx, exec, profile)
}

type fakeMatchProcessor struct {
	ProcessFunc func(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) (map[int][]*models.Trophy, error)
}

func (f *fakeMatchProcessor) Process(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) (map[int][]*models.Trophy, error) {
	if f.ProcessFunc == nil {
		return nil, nil
	}
	return f.ProcessFunc(ctx, exec, game)
}

// fakeNotificationService records calls and never fails.
type fakeNotificationService struct {
	reported []*models.Game
	verified []*models.Game
	disputed []*models.Game
	resolved []*models.Game
	trophies map[int][]*models.Trophy
}

func newFakeNotificationService() *fakeNotificationService {
	return &fakeNotificationService{trophies: make(map[int][]*models.Trophy)}
}

func (f *fakeNotificationService) GameReported(ctx context.Context, game *models.Game) error {
	f.reported = append(f.reported, game)
	return nil
}

func (f *fakeNotificationService) GameVerified(ctx context.Context, game *models.Game) error {
	f.verified = append(f.verified, game)
	return nil
}

func (f *fakeNotificationService) GameDisputed(ctx context.Context, game *models.Game, disputerID int, reason string) error {
	f.disputed = append(f.disputed, game)
	return nil
}

func (f *fakeNotificationService) GameResolved(ctx context.Context, game *models.Game) error {
	f.resolved = append(f.resolved, game)
	return nil
}

func (f *fakeNotificationService) TrophiesAwarded(ctx context.Context, playerID int, trophies []*models.Trophy) error {
	f.trophies[playerID] = append(f.trophies[playerID], trophies...)
	return nil
}

func (f *fakeNotificationService) ListForUser(ctx context.Context, userID, limit int) ([]*models.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationService) CountUnread(ctx context.Context, userID int) (int, error) {
	return 0, nil
}

func (f *fakeNotificationService) MarkRead(ctx context.Context, id, userID int) error {
	return nil
}

func (f *fakeNotificationService) MarkAllRead(ctx context.Context, userID int) error {
	return nil
}

func intPtr(v int) *int { return &v }
