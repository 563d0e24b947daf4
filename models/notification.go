package models

import "time"

type NotificationType string

const (
	NotificationGameVerification NotificationType = "game_verification"
	NotificationGameVerified     NotificationType = "game_verified"
	NotificationGameDisputed     NotificationType = "game_disputed"
	NotificationGameResolved     NotificationType = "game_resolved"
	NotificationAchievement      NotificationType = "achievement"
	NotificationAdminAlert       NotificationType = "admin_alert"
)

type Notification struct {
	ID          int              `json:"id" db:"id"`
	RecipientID int              `json:"recipient_id" db:"recipient_id"`
	Type        NotificationType `json:"notification_type" db:"notification_type"`
	Title       string           `json:"title" db:"title"`
	Message     string           `json:"message" db:"message"`

	RelatedGameID *int `json:"related_game_id,omitempty" db:"related_game_id"`
	RelatedUserID *int `json:"related_user_id,omitempty" db:"related_user_id"`

	IsRead    bool       `json:"is_read" db:"is_read"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty" db:"read_at"`
}
