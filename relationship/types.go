package relationship

import (
	"context"

	"github.com/lingokit/server/model"
)

// Action is a state transition requested by one party of a relationship.
type Action string

const (
	ActionAccept   Action = "ACCEPT"
	ActionCancel   Action = "CANCEL"
	ActionReject   Action = "REJECT"
	ActionUnfriend Action = "UNFRIEND"
	ActionBlock    Action = "BLOCK"
	ActionUnblock  Action = "UNBLOCK"
)

// RelativeStatus is a relationship status seen from one user's perspective.
type RelativeStatus string

const (
	RelStranger        RelativeStatus = "STRANGER"
	RelPendingOutgoing RelativeStatus = "PENDING_OUTGOING"
	RelPendingIncoming RelativeStatus = "PENDING_INCOMING"
	RelFriends         RelativeStatus = "FRIENDS"
	RelBlocked         RelativeStatus = "BLOCKED"
)

// Info describes what a viewer may see and do on another user's profile.
type Info struct {
	RelationshipID *int64         `json:"relationship_id"`
	Status         RelativeStatus `json:"status"`
	// AcceptsFriendRequests is only determined for users with no active
	// relationship to the viewer; nil otherwise.
	AcceptsFriendRequests *bool `json:"accepts_friend_requests"`
	ProfileVisible        bool  `json:"profile_visible"`
}

// PublicProfile is a user surfaced by the new-friends search.
type PublicProfile struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// RelatedProfile is a user tied to the caller by a relationship row.
type RelatedProfile struct {
	UserID         int64                    `json:"user_id"`
	Username       string                   `json:"username"`
	AvatarURL      string                   `json:"avatar_url"`
	RelationshipID int64                    `json:"relationship_id"`
	Status         model.RelationshipStatus `json:"status"`
}

// FriendMatch is a friend found by the friends search.
type FriendMatch struct {
	UserID      int64                    `json:"user_id"`
	Username    string                   `json:"username"`
	Status      model.RelationshipStatus `json:"status"`
	IsRequester bool                     `json:"is_requester"`
}

// Directory resolves profiles for request-eligibility checks.
type Directory interface {
	GetProfile(ctx context.Context, userID int64) (*model.Profile, error)
}

// Notifier delivers friendship events to the affected user. Delivery is
// fire-and-forget from the engine's perspective: errors are logged and
// never abort a committed transition.
type Notifier interface {
	FriendRequestReceived(ctx context.Context, requesterID, requesteeID, relationshipID int64) error
	FriendRequestAccepted(ctx context.Context, rel *model.Relationship) error
}
