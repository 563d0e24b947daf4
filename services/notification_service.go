package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/TeaBear5/inspyre-ping-pong/models"
	"github.com/TeaBear5/inspyre-ping-pong/repositories"
)

// RealtimePublisher pushes an event to a connected user. Implemented by
// the websocket hub; a nil-safe no-op is fine in tests.
type RealtimePublisher interface {
	PublishToUser(userID int, event interface{})
}

// NotificationService fans out lifecycle events to the involved
// players: a database row always, a websocket push when the player is
// connected, and an email to admins on disputes. Delivery failures are
// reported to the caller for logging but must never affect game or
// rating state.
type NotificationService interface {
	GameReported(ctx context.Context, game *models.Game) error
	GameVerified(ctx context.Context, game *models.Game) error
	GameDisputed(ctx context.Context, game *models.Game, disputerID int, reason string) error
	GameResolved(ctx context.Context, game *models.Game) error
	TrophiesAwarded(ctx context.Context, playerID int, trophies []*models.Trophy) error

	ListForUser(ctx context.Context, userID, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, id, userID int) error
	MarkAllRead(ctx context.Context, userID int) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	publisher        RealtimePublisher
	email            EmailService
	logger           *slog.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	publisher RealtimePublisher,
	email EmailService,
	logger *slog.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		publisher:        publisher,
		email:            email,
		logger:           logger,
	}
}

func (s *notificationService) deliver(ctx context.Context, n *models.Notification) error {
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification for user %d: %w", n.RecipientID, err)
	}
	if s.publisher != nil {
		s.publisher.PublishToUser(n.RecipientID, n)
	}
	return nil
}

// GameReported asks every counterpart of the reporter to verify the
// result. In doubles the reporter's teammate is informed but cannot
// act, so only opposing players are notified.
func (s *notificationService) GameReported(ctx context.Context, game *models.Game) error {
	reporter, err := s.userRepo.GetByID(ctx, game.ReportedByID)
	if err != nil {
		return err
	}

	var deliveryErr error
	for _, id := range game.ParticipantIDs() {
		if !game.IsCounterpart(id) {
			continue
		}
		n := &models.Notification{
			RecipientID: id,
			Type:        models.NotificationGameVerification,
			Title:       "Game awaiting your verification",
			Message: fmt.Sprintf("%s reported a %s game (%d:%d). Please verify or dispute it.",
				reporter.Nickname, game.Type, game.Side1Score, game.Side2Score),
			RelatedGameID: &game.ID,
			RelatedUserID: &game.ReportedByID,
		}
		if err := s.deliver(ctx, n); err != nil {
			deliveryErr = errors.Join(deliveryErr, err)
		}
	}
	return deliveryErr
}

func (s *notificationService) GameVerified(ctx context.Context, game *models.Game) error {
	var deliveryErr error
	for _, id := range game.ParticipantIDs() {
		if game.VerifiedByID != nil && id == *game.VerifiedByID {
			continue
		}
		n := &models.Notification{
			RecipientID: id,
			Type:        models.NotificationGameVerified,
			Title:       "Game verified",
			Message: fmt.Sprintf("Your %s game (%d:%d) was verified and ratings were updated.",
				game.Type, game.Side1Score, game.Side2Score),
			RelatedGameID: &game.ID,
		}
		if err := s.deliver(ctx, n); err != nil {
			deliveryErr = errors.Join(deliveryErr, err)
		}
	}
	return deliveryErr
}

// GameDisputed informs the other participants and alerts admins by
// notification and email so a resolution happens quickly.
func (s *notificationService) GameDisputed(ctx context.Context, game *models.Game, disputerID int, reason string) error {
	disputer, err := s.userRepo.GetByID(ctx, disputerID)
	if err != nil {
		return err
	}

	var deliveryErr error
	for _, id := range game.ParticipantIDs() {
		if id == disputerID {
			continue
		}
		n := &models.Notification{
			RecipientID: id,
			Type:        models.NotificationGameDisputed,
			Title:       "Game disputed",
			Message: fmt.Sprintf("%s disputed your %s game: %s",
				disputer.Nickname, game.Type, reason),
			RelatedGameID: &game.ID,
			RelatedUserID: &disputerID,
		}
		if err := s.deliver(ctx, n); err != nil {
			deliveryErr = errors.Join(deliveryErr, err)
		}
	}

	admins, err := s.userRepo.ListAdmins(ctx)
	if err != nil {
		return errors.Join(deliveryErr, err)
	}
	for _, admin := range admins {
		n := &models.Notification{
			RecipientID: admin.ID,
			Type:        models.NotificationAdminAlert,
			Title:       "Dispute needs resolution",
			Message: fmt.Sprintf("Game %d was disputed by %s: %s",
				game.ID, disputer.Nickname, reason),
			RelatedGameID: &game.ID,
			RelatedUserID: &disputerID,
		}
		if err := s.deliver(ctx, n); err != nil {
			deliveryErr = errors.Join(deliveryErr, err)
		}
		if s.email != nil {
			subject := fmt.Sprintf("Disputed game #%d", game.ID)
			body := fmt.Sprintf("Game %d (%s, %d:%d) was disputed by %s.\n\nReason: %s\n\nPlease resolve it in the admin panel.",
				game.ID, game.Type, game.Side1Score, game.Side2Score, disputer.Nickname, reason)
			if err := s.email.Send(admin.Email, subject, body); err != nil {
				s.logger.Warn("failed to email admin about dispute",
					slog.String("admin_email", admin.Email), slog.Any("error", err))
			}
		}
	}
	return deliveryErr
}

func (s *notificationService) GameResolved(ctx context.Context, game *models.Game) error {
	notes := ""
	if game.ResolutionNotes != nil {
		notes = *game.ResolutionNotes
	}

	var deliveryErr error
	for _, id := range game.ParticipantIDs() {
		n := &models.Notification{
			RecipientID: id,
			Type:        models.NotificationGameResolved,
			Title:       "Dispute resolved",
			Message: fmt.Sprintf("An admin resolved the dispute on your %s game: %s",
				game.Type, notes),
			RelatedGameID: &game.ID,
		}
		if err := s.deliver(ctx, n); err != nil {
			deliveryErr = errors.Join(deliveryErr, err)
		}
	}
	return deliveryErr
}

func (s *notificationService) TrophiesAwarded(ctx context.Context, playerID int, trophies []*models.Trophy) error {
	var deliveryErr error
	for _, trophy := range trophies {
		n := &models.Notification{
			RecipientID: playerID,
			Type:        models.NotificationAchievement,
			Title:       "Achievement unlocked",
			Message:     fmt.Sprintf("%s %s: %s", trophy.Icon, trophy.Name, trophy.Description),
		}
		if err := s.deliver(ctx, n); err != nil {
			deliveryErr = errors.Join(deliveryErr, err)
		}
	}
	return deliveryErr
}

func (s *notificationService) ListForUser(ctx context.Context, userID, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notificationRepo.ListByRecipient(ctx, userID, limit)
}

func (s *notificationService) CountUnread(ctx context.Context, userID int) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID int) error {
	err := s.notificationRepo.MarkRead(ctx, id, userID)
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}
