package model

import "time"

// NotificationType categorizes a notification.
type NotificationType string

const (
	NotifyFriendshipRequested NotificationType = "FRIENDSHIP_REQUESTED"
	NotifyFriendshipAccepted  NotificationType = "FRIENDSHIP_ACCEPTED"
)

// Notification is a stored in-app notification for one recipient.
type Notification struct {
	ID          int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientID int64            `gorm:"index:idx_notification_recipient;not null" json:"recipient_id"`
	SenderID    *int64           `json:"sender_id"`
	Type        NotificationType `gorm:"size:32;not null" json:"type"`
	Title       string           `gorm:"size:128;not null" json:"title"`
	Message     string           `gorm:"size:255" json:"message"`
	PictureURL  string           `gorm:"size:255" json:"picture_url"`
	// ReferenceID points at the entity the notification is about,
	// e.g. the relationship row for friendship events.
	ReferenceID *int64     `json:"reference_id"`
	ReadAt      *time.Time `json:"read_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
