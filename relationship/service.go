package relationship

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lingokit/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service owns the relationship lifecycle: friend requests, acceptance,
// blocking and the derived per-viewer visibility rules. All command
// operations run inside one transaction; the unordered-pair unique index
// on the relationship table is the backstop against concurrent inserts.
type Service struct {
	db        *gorm.DB
	directory Directory
	notifier  Notifier
	logger    *zap.Logger
}

// NewService creates a relationship Service.
func NewService(db *gorm.DB, directory Directory, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{db: db, directory: directory, notifier: notifier, logger: logger}
}

// Info derives what the viewer may see and do on the given profile.
// profileHidden is the target profile's hidden flag, passed in by the
// caller who has already resolved the profile.
func (s *Service) Info(ctx context.Context, viewerID, profileID int64, profileHidden bool) (Info, error) {
	info := Info{
		Status:         RelStranger,
		ProfileVisible: !profileHidden,
	}

	rel, err := s.findByPair(s.db.WithContext(ctx), viewerID, profileID)
	if err != nil {
		return Info{}, err
	}
	if rel == nil {
		return info, nil
	}

	id := rel.ID
	info.RelationshipID = &id
	isRequester := viewerID == rel.RequesterID

	no := false
	switch rel.Status {
	case model.StatusFriends:
		info.Status = RelFriends
		info.ProfileVisible = true
	case model.StatusPending:
		if isRequester {
			info.Status = RelPendingOutgoing
		} else {
			info.Status = RelPendingIncoming
		}
	case model.StatusFstBlockedSnd:
		if isRequester {
			info.Status = RelBlocked
		} else {
			info.AcceptsFriendRequests = &no
			info.ProfileVisible = false
		}
	case model.StatusSndBlockedFst:
		if isRequester {
			info.AcceptsFriendRequests = &no
			info.ProfileVisible = false
		} else {
			info.Status = RelBlocked
		}
	case model.StatusMutualBlock:
		info.Status = RelBlocked
		info.ProfileVisible = false
	case model.StatusRejected, model.StatusCancelled, model.StatusUnfriended:
		// Same as if no relationship exists.
		eligible := profileHidden
		info.AcceptsFriendRequests = &eligible
	}
	return info, nil
}

// CreateRequest issues a friend request from requester to recipient. If a
// resolved relationship already exists for the pair it is re-established,
// swapping roles when the previous requestee is now the one asking.
func (s *Service) CreateRequest(ctx context.Context, requesterID, recipientID int64) (*model.Relationship, error) {
	if requesterID == recipientID {
		return nil, &Error{Reason: reasonCantEstablish}
	}

	var rel *model.Relationship
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.findByPair(tx, requesterID, recipientID)
		if err != nil {
			return err
		}

		if existing == nil {
			profile, err := s.directory.GetProfile(ctx, recipientID)
			if err != nil {
				return err
			}
			if profile.Hidden {
				return &Error{Reason: reasonCantEstablish}
			}
			rel = &model.Relationship{
				RequesterID: requesterID,
				RequesteeID: recipientID,
				Status:      model.StatusPending,
			}
			if err := tx.Create(rel).Error; err != nil {
				if isUniqueViolation(err) {
					// Lost a race against a concurrent request for the same pair.
					return &Error{Reason: reasonCantEstablish}
				}
				return err
			}
			return nil
		}

		if !existing.Status.Retryable() {
			return &Error{Reason: reasonCantEstablish}
		}
		if existing.RequesteeID == requesterID {
			existing.RequesterID, existing.RequesteeID = requesterID, existing.RequesterID
		}
		existing.Status = model.StatusPending
		if err := tx.Save(existing).Error; err != nil {
			return err
		}
		rel = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyRequestReceived(ctx, rel)
	return rel, nil
}

// Manage applies an action to the relationship with the given id on behalf
// of the acting user. The user must be the requester or requestee; each
// action additionally checks status and role preconditions. Nothing is
// persisted when a precondition fails.
func (s *Service) Manage(ctx context.Context, userID, relationshipID int64, action Action) (*model.Relationship, error) {
	var rel *model.Relationship
	var accepted bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r model.Relationship
		if err := tx.First(&r, relationshipID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !r.Involves(userID) {
			return &Error{Reason: reasonNotParticipant}
		}

		switch action {
		case ActionAccept:
			if err := requireStatus(&r, model.StatusPending); err != nil {
				return err
			}
			if err := requireRequestee(&r, userID); err != nil {
				return err
			}
			r.Status = model.StatusFriends
			accepted = true
		case ActionCancel:
			if err := requireStatus(&r, model.StatusPending); err != nil {
				return err
			}
			if err := requireRequester(&r, userID); err != nil {
				return err
			}
			r.Status = model.StatusCancelled
		case ActionReject:
			if err := requireStatus(&r, model.StatusPending); err != nil {
				return err
			}
			if err := requireRequestee(&r, userID); err != nil {
				return err
			}
			r.Status = model.StatusRejected
		case ActionUnfriend:
			if err := requireStatus(&r, model.StatusFriends); err != nil {
				return err
			}
			r.Status = model.StatusUnfriended
		case ActionBlock:
			if err := applyBlock(&r, userID); err != nil {
				return err
			}
		case ActionUnblock:
			if err := applyUnblock(&r, userID); err != nil {
				return err
			}
		default:
			return &Error{Reason: fmt.Sprintf("unknown relationship action %q", string(action))}
		}

		if err := tx.Save(&r).Error; err != nil {
			return err
		}
		rel = &r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if accepted {
		s.notifyAccepted(ctx, rel)
	}
	return rel, nil
}

// BlockUser blocks the target user, creating the relationship row first
// when none exists for the pair.
func (s *Service) BlockUser(ctx context.Context, userID, targetID int64) (*model.Relationship, error) {
	if userID == targetID {
		return nil, &Error{Reason: reasonCantEstablish}
	}

	var rel *model.Relationship
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.findByPair(tx, userID, targetID)
		if err != nil {
			return err
		}
		if existing == nil {
			// The target must exist; the status set here is immediately
			// overwritten by the block rule.
			if _, err := s.directory.GetProfile(ctx, targetID); err != nil {
				return err
			}
			existing = &model.Relationship{
				RequesterID: userID,
				RequesteeID: targetID,
				Status:      model.StatusPending,
			}
			if err := tx.Create(existing).Error; err != nil {
				if isUniqueViolation(err) {
					return &Error{Reason: reasonCantEstablish}
				}
				return err
			}
		}
		if err := applyBlock(existing, userID); err != nil {
			return err
		}
		if err := tx.Save(existing).Error; err != nil {
			return err
		}
		rel = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// applyBlock mutates the status per the block rule: blocking an already
// one-sided-blocked relationship from the other side escalates to a mutual
// block; blocking twice from the same side fails.
func applyBlock(r *model.Relationship, userID int64) error {
	if r.Status == model.StatusMutualBlock {
		return &Error{Reason: reasonAlreadyBlocked}
	}
	if denier, ok := r.Denier(); ok {
		if denier == userID {
			return &Error{Reason: reasonAlreadyBlocked}
		}
		r.Status = model.StatusMutualBlock
		return nil
	}
	if r.RequesterID == userID {
		r.Status = model.StatusFstBlockedSnd
	} else {
		r.Status = model.StatusSndBlockedFst
	}
	return nil
}

// applyUnblock removes the acting user's side of a block. Under a mutual
// block both parties hold one, so unblocking reverts to the single-sided
// block kept by the other party; removing a single-sided block restores
// FRIENDS.
func applyUnblock(r *model.Relationship, userID int64) error {
	switch r.Status {
	case model.StatusMutualBlock:
		if r.RequesterID == userID {
			r.Status = model.StatusSndBlockedFst
		} else {
			r.Status = model.StatusFstBlockedSnd
		}
	case model.StatusFstBlockedSnd, model.StatusSndBlockedFst:
		denier, _ := r.Denier()
		if denier != userID {
			return &Error{Reason: reasonNotDenier}
		}
		r.Status = model.StatusFriends
	default:
		return &Error{Reason: reasonNotBlocked}
	}
	return nil
}

func requireStatus(r *model.Relationship, allowed ...model.RelationshipStatus) error {
	for _, s := range allowed {
		if r.Status == s {
			return nil
		}
	}
	return errStatusMustBe(allowed...)
}

func requireRequester(r *model.Relationship, userID int64) error {
	if r.RequesterID != userID {
		return &Error{Reason: reasonNotRequester}
	}
	return nil
}

func requireRequestee(r *model.Relationship, userID int64) error {
	if r.RequesteeID != userID {
		return &Error{Reason: reasonNotRequestee}
	}
	return nil
}

// findByPair looks up the single row for an unordered user pair.
func (s *Service) findByPair(tx *gorm.DB, a, b int64) (*model.Relationship, error) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	var rel model.Relationship
	err := tx.Where("pair_lo = ? AND pair_hi = ?", lo, hi).First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (s *Service) notifyRequestReceived(ctx context.Context, rel *model.Relationship) {
	if err := s.notifier.FriendRequestReceived(ctx, rel.RequesterID, rel.RequesteeID, rel.ID); err != nil {
		s.logger.Warn("friend request notification failed",
			zap.Int64("relationship_id", rel.ID),
			zap.Error(err))
	}
}

func (s *Service) notifyAccepted(ctx context.Context, rel *model.Relationship) {
	if err := s.notifier.FriendRequestAccepted(ctx, rel); err != nil {
		s.logger.Warn("friendship acceptance notification failed",
			zap.Int64("relationship_id", rel.ID),
			zap.Error(err))
	}
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
