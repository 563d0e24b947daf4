package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/TeaBear5/inspyre-ping-pong/models"
	"github.com/TeaBear5/inspyre-ping-pong/repositories"
)

// Actor identifies who is attempting a result transition. The caller
// (HTTP layer) resolves identity and admin privilege; the state machine
// decides the rest from the game itself.
type Actor struct {
	UserID int
	Admin  bool
}

// ActorRole is the capability an actor holds relative to a specific
// game.
type ActorRole string

const (
	RoleReporter    ActorRole = "reporter"
	RoleCounterpart ActorRole = "counterpart"
	RoleOutsider    ActorRole = "outsider"
)

// ReportGameInput carries a freshly reported result.
type ReportGameInput struct {
	Type models.GameType `json:"game_type"`

	Player1ID *int `json:"player1_id,omitempty"`
	Player2ID *int `json:"player2_id,omitempty"`

	Team1Player1ID *int `json:"team1_player1_id,omitempty"`
	Team1Player2ID *int `json:"team1_player2_id,omitempty"`
	Team2Player1ID *int `json:"team2_player1_id,omitempty"`
	Team2Player2ID *int `json:"team2_player2_id,omitempty"`

	Side1Score int    `json:"side1_score"`
	Side2Score int    `json:"side2_score"`
	Winner     string `json:"winner"`

	PlayedAt time.Time `json:"played_at"`
	Notes    *string   `json:"notes,omitempty"`
}

// GameService is the result lifecycle: pending → verified/disputed/
// cancelled, disputed → resolved/cancelled. The pending → verified
// transition is the single trigger for match processing and runs in the
// same transaction as the processing itself.
type GameService interface {
	Report(ctx context.Context, reporterID int, input ReportGameInput) (*models.Game, error)
	Verify(ctx context.Context, gameID int, actor Actor) (*models.Game, error)
	Dispute(ctx context.Context, gameID int, actor Actor, reason string) (*models.Game, error)
	Resolve(ctx context.Context, gameID int, actor Actor, notes string) (*models.Game, error)
	Cancel(ctx context.Context, gameID int, actor Actor) (*models.Game, error)
	GetByID(ctx context.Context, gameID int) (*models.Game, error)
	ListByPlayer(ctx context.Context, playerID int, status *models.GameStatus, limit int) ([]*models.Game, error)
	ListPendingVerifications(ctx context.Context, userID int) ([]*models.Game, error)
}

type gameService struct {
	db            *sql.DB
	gameRepo      repositories.GameRepository
	processor     MatchProcessor
	notifications NotificationService
	logger        *slog.Logger
}

func NewGameService(
	db *sql.DB,
	gameRepo repositories.GameRepository,
	processor MatchProcessor,
	notifications NotificationService,
	logger *slog.Logger,
) GameService {
	return &gameService{
		db:            db,
		gameRepo:      gameRepo,
		processor:     processor,
		notifications: notifications,
		logger:        logger,
	}
}

// resolveRole determines the actor's capability relative to the game.
// Admin privilege is carried separately on the Actor: an admin who also
// played the game keeps their participant role for verify/dispute
// purposes.
func resolveRole(game *models.Game, actor Actor) ActorRole {
	if actor.UserID == game.ReportedByID {
		return RoleReporter
	}
	if game.IsCounterpart(actor.UserID) {
		return RoleCounterpart
	}
	return RoleOutsider
}

func (s *gameService) Report(ctx context.Context, reporterID int, input ReportGameInput) (*models.Game, error) {
	game := &models.Game{
		Type:           input.Type,
		Status:         models.GameStatusPending,
		Player1ID:      input.Player1ID,
		Player2ID:      input.Player2ID,
		Team1Player1ID: input.Team1Player1ID,
		Team1Player2ID: input.Team1Player2ID,
		Team2Player1ID: input.Team2Player1ID,
		Team2Player2ID: input.Team2Player2ID,
		Side1Score:     input.Side1Score,
		Side2Score:     input.Side2Score,
		Winner:         input.Winner,
		ReportedByID:   reporterID,
		PlayedAt:       input.PlayedAt,
		Notes:          input.Notes,
	}

	if err := validateReport(game); err != nil {
		return nil, err
	}

	if err := s.gameRepo.Create(ctx, game); err != nil {
		if errors.Is(err, repositories.ErrGamePlayerInvalid) {
			return nil, fmt.Errorf("%w: unknown player in game", ErrValidationFailed)
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err := s.notifications.GameReported(ctx, game); err != nil {
		s.logger.Error("failed to send verification notifications",
			slog.Int("game_id", game.ID), slog.Any("error", err))
	}

	return game, nil
}

func validateReport(game *models.Game) error {
	if game.Side1Score < 0 || game.Side2Score < 0 {
		return ErrNegativeScore
	}
	// Streak derivation and the weekly standing key both depend on the
	// played date, so a zero timestamp cannot be accepted.
	if game.PlayedAt.IsZero() {
		return ErrPlayedAtRequired
	}

	switch game.Type {
	case models.GameTypeSingles:
		if game.Player1ID == nil || game.Player2ID == nil {
			return ErrSinglesPlayersRequired
		}
		if *game.Player1ID == *game.Player2ID {
			return ErrSamePlayerBothSides
		}
		if game.Winner != models.WinnerSide1 && game.Winner != models.WinnerSide2 {
			return ErrWinnerTokenInvalid
		}
	case models.GameTypeDoubles:
		slots := []*int{game.Team1Player1ID, game.Team1Player2ID, game.Team2Player1ID, game.Team2Player2ID}
		seen := make(map[int]bool, len(slots))
		for _, slot := range slots {
			if slot == nil {
				return ErrDoublesPlayersRequired
			}
			if seen[*slot] {
				return ErrSamePlayerBothSides
			}
			seen[*slot] = true
		}
		if game.Winner != models.WinnerTeam1 && game.Winner != models.WinnerTeam2 {
			return ErrWinnerTokenInvalid
		}
	default:
		return fmt.Errorf("%w: unknown game type %q", ErrValidationFailed, game.Type)
	}

	for _, id := range game.ParticipantIDs() {
		if id == game.ReportedByID {
			return nil
		}
	}
	return ErrReporterNotParticipant
}

// Verify moves a pending game to verified and processes it: ratings,
// aggregates, weekly points, streaks and achievements are applied in
// one transaction. Notifications go out only after a successful commit
// and never roll processing back.
func (s *gameService) Verify(ctx context.Context, gameID int, actor Actor) (*models.Game, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin verify transaction: %w", err)
	}
	defer tx.Rollback()

	game, err := s.gameRepo.GetByIDForUpdate(ctx, tx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if game.Status != models.GameStatusPending {
		return nil, ErrGameNotPending
	}
	if resolveRole(game, actor) != RoleCounterpart {
		return nil, ErrNotCounterpart
	}

	now := time.Now()
	if err := s.gameRepo.UpdateStatusVerified(ctx, tx, game.ID, actor.UserID, now); err != nil {
		return nil, err
	}
	game.Status = models.GameStatusVerified
	game.VerifiedByID = &actor.UserID
	game.VerifiedAt = &now

	awarded, err := s.processor.Process(ctx, tx, game)
	if err != nil {
		return nil, fmt.Errorf("failed to process verified game %d: %w", game.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit verify transaction: %w", err)
	}

	if err := s.notifications.GameVerified(ctx, game); err != nil {
		s.logger.Error("failed to send verified notification",
			slog.Int("game_id", game.ID), slog.Any("error", err))
	}
	for playerID, trophies := range awarded {
		if err := s.notifications.TrophiesAwarded(ctx, playerID, trophies); err != nil {
			s.logger.Error("failed to send trophy notifications",
				slog.Int("player_id", playerID), slog.Any("error", err))
		}
	}

	return game, nil
}

func (s *gameService) Dispute(ctx context.Context, gameID int, actor Actor, reason string) (*models.Game, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrDisputeReasonRequired
	}

	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != models.GameStatusPending {
		return nil, ErrGameNotPending
	}
	if resolveRole(game, actor) != RoleCounterpart {
		return nil, ErrNotCounterpart
	}

	now := time.Now()
	if err := s.gameRepo.UpdateStatusDisputed(ctx, game.ID, actor.UserID, reason, now); err != nil {
		// The update is guarded on the pending status; losing the race to
		// a concurrent transition reads back as a missing row.
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotPending
		}
		return nil, err
	}
	game.Status = models.GameStatusDisputed
	game.DisputedByID = &actor.UserID
	game.DisputeReason = &reason
	game.DisputedAt = &now

	if err := s.notifications.GameDisputed(ctx, game, actor.UserID, reason); err != nil {
		s.logger.Error("failed to send dispute notifications",
			slog.Int("game_id", game.ID), slog.Any("error", err))
	}

	return game, nil
}

func (s *gameService) Resolve(ctx context.Context, gameID int, actor Actor, notes string) (*models.Game, error) {
	if !actor.Admin {
		return nil, ErrAdminRequired
	}
	if strings.TrimSpace(notes) == "" {
		return nil, ErrResolutionNotesRequired
	}

	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != models.GameStatusDisputed {
		return nil, ErrGameNotDisputed
	}

	now := time.Now()
	if err := s.gameRepo.UpdateStatusResolved(ctx, game.ID, actor.UserID, notes, now); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotDisputed
		}
		return nil, err
	}
	game.Status = models.GameStatusResolved
	game.ResolvedByID = &actor.UserID
	game.ResolutionNotes = &notes
	game.ResolvedAt = &now

	if err := s.notifications.GameResolved(ctx, game); err != nil {
		s.logger.Error("failed to send resolution notification",
			slog.Int("game_id", game.ID), slog.Any("error", err))
	}

	return game, nil
}

func (s *gameService) Cancel(ctx context.Context, gameID int, actor Actor) (*models.Game, error) {
	if !actor.Admin {
		return nil, ErrAdminRequired
	}

	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status.IsTerminal() {
		return nil, ErrGameNotPending
	}

	if err := s.gameRepo.UpdateStatusCancelled(ctx, game.ID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotPending
		}
		return nil, err
	}
	game.Status = models.GameStatusCancelled
	return game, nil
}

func (s *gameService) GetByID(ctx context.Context, gameID int) (*models.Game, error) {
	return s.getGame(ctx, gameID)
}

func (s *gameService) getGame(ctx context.Context, gameID int) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, nil, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return game, nil
}

func (s *gameService) ListByPlayer(ctx context.Context, playerID int, status *models.GameStatus, limit int) ([]*models.Game, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.gameRepo.ListByPlayer(ctx, playerID, status, limit)
}

func (s *gameService) ListPendingVerifications(ctx context.Context, userID int) ([]*models.Game, error) {
	games, err := s.gameRepo.ListPendingInvolving(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Keep only games where the user actually holds the counterpart
	// role; in doubles, teammates of the reporter cannot verify.
	eligible := make([]*models.Game, 0, len(games))
	for _, g := range games {
		if g.IsCounterpart(userID) {
			eligible = append(eligible, g)
		}
	}
	return eligible, nil
}
