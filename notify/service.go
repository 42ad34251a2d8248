package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lingokit/server/cache"
	"github.com/lingokit/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a notification id does not resolve for the
// given recipient.
var ErrNotFound = errors.New("notification not found")

// Event is the payload published for live delivery over pub/sub.
type Event struct {
	ID          int64                  `json:"id"`
	Type        model.NotificationType `json:"type"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	PictureURL  string                 `json:"picture_url,omitempty"`
	ReferenceID *int64                 `json:"reference_id,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Service persists notifications and fans them out to live subscribers.
type Service struct {
	db     *gorm.DB
	pubsub cache.PubSub
	logger *zap.Logger
}

// NewService creates a notify Service.
func NewService(db *gorm.DB, pubsub cache.PubSub, logger *zap.Logger) *Service {
	return &Service{db: db, pubsub: pubsub, logger: logger}
}

// Channel returns the pub/sub channel carrying one user's notifications.
func Channel(userID int64) string {
	return fmt.Sprintf("notify:%d", userID)
}

// FriendRequestReceived notifies the requestee about a new friend request.
func (s *Service) FriendRequestReceived(ctx context.Context, requesterID, requesteeID, relationshipID int64) error {
	sender, avatar, err := s.senderInfo(ctx, requesterID)
	if err != nil {
		return err
	}

	n := &model.Notification{
		RecipientID: requesteeID,
		SenderID:    &requesterID,
		Type:        model.NotifyFriendshipRequested,
		Title:       "Friendship request received",
		Message:     fmt.Sprintf("@%s wants to be friends with you!", sender.Username),
		PictureURL:  avatar,
		ReferenceID: &relationshipID,
	}
	return s.store(ctx, n)
}

// FriendRequestAccepted notifies the original requester that their request
// was accepted.
func (s *Service) FriendRequestAccepted(ctx context.Context, rel *model.Relationship) error {
	sender, avatar, err := s.senderInfo(ctx, rel.RequesteeID)
	if err != nil {
		return err
	}

	refID := rel.ID
	n := &model.Notification{
		RecipientID: rel.RequesterID,
		SenderID:    &rel.RequesteeID,
		Type:        model.NotifyFriendshipAccepted,
		Title:       "Friendship request accepted",
		Message:     fmt.Sprintf("@%s accepted your friendship request!", sender.Username),
		PictureURL:  avatar,
		ReferenceID: &refID,
	}
	return s.store(ctx, n)
}

// List returns the recipient's notifications, newest first.
func (s *Service) List(ctx context.Context, userID int64, unreadOnly bool) ([]model.Notification, error) {
	q := s.db.WithContext(ctx).Where("recipient_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var list []model.Notification
	if err := q.Order("created_at DESC").Limit(50).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// MarkRead marks one of the recipient's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeRead deletes read notifications older than the retention window.
func (s *Service) PurgeRead(ctx context.Context, retain time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retain)
	res := s.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND read_at < ?", cutoff).
		Delete(&model.Notification{})
	return res.RowsAffected, res.Error
}

// store persists the notification and publishes it for live delivery.
// Publishing is best-effort; a subscriber that is offline picks the
// notification up from the list endpoint later.
func (s *Service) store(ctx context.Context, n *model.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return err
	}

	payload, err := json.Marshal(Event{
		ID:          n.ID,
		Type:        n.Type,
		Title:       n.Title,
		Message:     n.Message,
		PictureURL:  n.PictureURL,
		ReferenceID: n.ReferenceID,
		CreatedAt:   n.CreatedAt,
	})
	if err != nil {
		return err
	}
	if err := s.pubsub.Publish(ctx, Channel(n.RecipientID), string(payload)); err != nil {
		s.logger.Warn("notification publish failed",
			zap.Int64("recipient_id", n.RecipientID),
			zap.Error(err))
	}
	return nil
}

func (s *Service) senderInfo(ctx context.Context, userID int64) (*model.User, string, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, "", err
	}
	var p model.Profile
	avatar := ""
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err == nil && !p.Hidden {
		avatar = p.AvatarURL
	}
	return &u, avatar, nil
}
