package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/TeaBear5/inspyre-ping-pong/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, recipientID int) (int, error)
	MarkRead(ctx context.Context, id, recipientID int) error
	MarkAllRead(ctx context.Context, recipientID int) error
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, notification_type, title, message, related_game_id, related_user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_read, created_at`

	err := r.db.QueryRowContext(ctx, query,
		notification.RecipientID,
		notification.Type,
		notification.Title,
		notification.Message,
		notification.RelatedGameID,
		notification.RelatedUserID,
	).Scan(&notification.ID, &notification.IsRead, &notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification for user %d: %w", notification.RecipientID, err)
	}
	return nil
}

const notificationColumns = `id, recipient_id, notification_type, title, message, related_game_id, related_user_id, is_read, created_at, read_at`

func (r *postgresNotificationRepository) ListByRecipient(ctx context.Context, recipientID, limit int) ([]*models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications for user %d: %w", recipientID, err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if scanErr := rows.Scan(
			&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Message,
			&n.RelatedGameID, &n.RelatedUserID, &n.IsRead, &n.CreatedAt, &n.ReadAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", scanErr)
		}
		notifications = append(notifications, &n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during notification rows iteration: %w", err)
	}
	return notifications, nil
}

func (r *postgresNotificationRepository) CountUnread(ctx context.Context, recipientID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`
	if err := r.db.QueryRowContext(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications for user %d: %w", recipientID, err)
	}
	return count, nil
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id, recipientID int) error {
	query := `UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE id = $1 AND recipient_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}

func (r *postgresNotificationRepository) MarkAllRead(ctx context.Context, recipientID int) error {
	query := `UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE recipient_id = $1 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, recipientID); err != nil {
		return fmt.Errorf("failed to mark notifications read for user %d: %w", recipientID, err)
	}
	return nil
}
