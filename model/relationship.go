package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// RelationshipStatus is the lifecycle state of a Relationship.
type RelationshipStatus string

const (
	StatusPending       RelationshipStatus = "PENDING"
	StatusFriends       RelationshipStatus = "FRIENDS"
	StatusRejected      RelationshipStatus = "REJECTED"
	StatusCancelled     RelationshipStatus = "CANCELLED"
	StatusUnfriended    RelationshipStatus = "UNFRIENDED"
	StatusFstBlockedSnd RelationshipStatus = "FST_BLOCKED_SND" // requester blocked requestee
	StatusSndBlockedFst RelationshipStatus = "SND_BLOCKED_FST" // requestee blocked requester
	StatusMutualBlock   RelationshipStatus = "MUTUAL_BLOCK"
)

// Retryable reports whether a new friend request may be issued over a
// relationship in this status. Rows are never deleted; a resolved
// relationship is re-established by flipping it back to PENDING.
func (s RelationshipStatus) Retryable() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusUnfriended:
		return true
	}
	return false
}

// RetryableStatuses lists the statuses from which a request can be retried.
func RetryableStatuses() []RelationshipStatus {
	return []RelationshipStatus{StatusRejected, StatusCancelled, StatusUnfriended}
}

// Relationship is the bilateral record linking two users. The requester is
// the party who initiated the original friend request; roles persist across
// status changes so block attribution stays well-defined.
type Relationship struct {
	ID          int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	RequesterID int64              `gorm:"not null" json:"requester_id"`
	RequesteeID int64              `gorm:"not null" json:"requestee_id"`
	Status      RelationshipStatus `gorm:"size:16;not null;default:PENDING" json:"status"`

	// Normalized pair columns. pair_lo < pair_hi always holds, so the
	// composite unique index enforces at most one row per unordered user
	// pair regardless of who initiated.
	PairLo int64 `gorm:"uniqueIndex:idx_relationship_pair;not null" json:"-"`
	PairHi int64 `gorm:"uniqueIndex:idx_relationship_pair;not null" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ErrSelfRelationship is returned when requester and requestee are the same user.
var ErrSelfRelationship = errors.New("requester and requestee must differ")

// BeforeSave maintains the normalized pair columns.
func (r *Relationship) BeforeSave(*gorm.DB) error {
	if r.RequesterID == r.RequesteeID {
		return ErrSelfRelationship
	}
	r.PairLo, r.PairHi = r.RequesterID, r.RequesteeID
	if r.PairLo > r.PairHi {
		r.PairLo, r.PairHi = r.PairHi, r.PairLo
	}
	return nil
}

// Denier returns the user who unilaterally imposed a block, if any.
// A mutual block has no single denier.
func (r *Relationship) Denier() (int64, bool) {
	switch r.Status {
	case StatusFstBlockedSnd:
		return r.RequesterID, true
	case StatusSndBlockedFst:
		return r.RequesteeID, true
	}
	return 0, false
}

// OtherParty returns the counterpart of the given user in this relationship.
func (r *Relationship) OtherParty(userID int64) int64 {
	if r.RequesterID == userID {
		return r.RequesteeID
	}
	return r.RequesterID
}

// Involves reports whether the given user is the requester or requestee.
func (r *Relationship) Involves(userID int64) bool {
	return r.RequesterID == userID || r.RequesteeID == userID
}
