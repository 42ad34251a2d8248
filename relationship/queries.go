package relationship

import (
	"context"
	"strings"

	"github.com/lingokit/server/model"
)

const searchLimit = 50

// Friends lists the caller's current friends.
func (s *Service) Friends(ctx context.Context, userID int64) ([]RelatedProfile, error) {
	var rels []model.Relationship
	err := s.db.WithContext(ctx).
		Where("(requester_id = ? OR requestee_id = ?) AND status = ?",
			userID, userID, model.StatusFriends).
		Find(&rels).Error
	if err != nil {
		return nil, err
	}
	return s.relatedProfiles(ctx, userID, rels)
}

// SentRequests lists the caller's outgoing pending requests.
func (s *Service) SentRequests(ctx context.Context, userID int64) ([]RelatedProfile, error) {
	var rels []model.Relationship
	err := s.db.WithContext(ctx).
		Where("requester_id = ? AND status = ?", userID, model.StatusPending).
		Find(&rels).Error
	if err != nil {
		return nil, err
	}
	return s.relatedProfiles(ctx, userID, rels)
}

// ReceivedRequests lists the caller's incoming pending requests.
func (s *Service) ReceivedRequests(ctx context.Context, userID int64) ([]RelatedProfile, error) {
	var rels []model.Relationship
	err := s.db.WithContext(ctx).
		Where("requestee_id = ? AND status = ?", userID, model.StatusPending).
		Find(&rels).Error
	if err != nil {
		return nil, err
	}
	return s.relatedProfiles(ctx, userID, rels)
}

// Blocked lists the users the caller is currently blocking, including both
// sides of a mutual block.
func (s *Service) Blocked(ctx context.Context, userID int64) ([]RelatedProfile, error) {
	var rels []model.Relationship
	err := s.db.WithContext(ctx).
		Where("(requester_id = ? AND status IN ?) OR (requestee_id = ? AND status IN ?)",
			userID, []model.RelationshipStatus{model.StatusFstBlockedSnd, model.StatusMutualBlock},
			userID, []model.RelationshipStatus{model.StatusSndBlockedFst, model.StatusMutualBlock}).
		Find(&rels).Error
	if err != nil {
		return nil, err
	}
	return s.relatedProfiles(ctx, userID, rels)
}

// SearchNewFriends finds users matching the username fragment who have no
// active relationship with the caller. Users in a retryable (resolved)
// relationship remain discoverable; hidden profiles keep their avatar
// private but still appear by name.
func (s *Service) SearchNewFriends(ctx context.Context, userID int64, username string) ([]PublicProfile, error) {
	var rels []model.Relationship
	err := s.db.WithContext(ctx).
		Where("(requester_id = ? OR requestee_id = ?) AND status NOT IN ?",
			userID, userID, model.RetryableStatuses()).
		Find(&rels).Error
	if err != nil {
		return nil, err
	}
	excluded := make([]int64, 0, len(rels)+1)
	excluded = append(excluded, userID)
	for i := range rels {
		excluded = append(excluded, rels[i].OtherParty(userID))
	}

	var users []model.User
	err = s.db.WithContext(ctx).
		Where("username LIKE ?", "%"+username+"%").
		Where("id NOT IN ?", excluded).
		Limit(searchLimit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return []PublicProfile{}, nil
	}

	profiles, err := s.profilesByID(ctx, userIDs(users))
	if err != nil {
		return nil, err
	}

	result := make([]PublicProfile, 0, len(users))
	for i := range users {
		u := &users[i]
		avatar := ""
		if p, ok := profiles[u.ID]; ok && !p.Hidden {
			avatar = p.AvatarURL
		}
		result = append(result, PublicProfile{
			UserID:    u.ID,
			Username:  u.Username,
			AvatarURL: avatar,
		})
	}
	return result, nil
}

// SearchFriends finds the caller's friends whose username contains the
// given fragment.
func (s *Service) SearchFriends(ctx context.Context, userID int64, username string) ([]FriendMatch, error) {
	var rels []model.Relationship
	err := s.db.WithContext(ctx).
		Where("(requester_id = ? OR requestee_id = ?) AND status = ?",
			userID, userID, model.StatusFriends).
		Find(&rels).Error
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return []FriendMatch{}, nil
	}

	ids := make([]int64, 0, len(rels))
	byOther := make(map[int64]*model.Relationship, len(rels))
	for i := range rels {
		other := rels[i].OtherParty(userID)
		ids = append(ids, other)
		byOther[other] = &rels[i]
	}

	var users []model.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}

	fragment := strings.ToLower(username)
	result := make([]FriendMatch, 0, len(users))
	for i := range users {
		u := &users[i]
		if !strings.Contains(strings.ToLower(u.Username), fragment) {
			continue
		}
		rel := byOther[u.ID]
		result = append(result, FriendMatch{
			UserID:      u.ID,
			Username:    u.Username,
			Status:      rel.Status,
			IsRequester: rel.RequesterID == userID,
		})
	}
	return result, nil
}

// relatedProfiles resolves the counterpart user of each relationship row
// into a RelatedProfile. Hidden profiles keep their avatar private.
func (s *Service) relatedProfiles(ctx context.Context, userID int64, rels []model.Relationship) ([]RelatedProfile, error) {
	if len(rels) == 0 {
		return []RelatedProfile{}, nil
	}

	ids := make([]int64, 0, len(rels))
	for i := range rels {
		ids = append(ids, rels[i].OtherParty(userID))
	}

	var users []model.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	profiles, err := s.profilesByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]RelatedProfile, 0, len(rels))
	for i := range rels {
		rel := &rels[i]
		otherID := rel.OtherParty(userID)
		u, ok := byID[otherID]
		if !ok {
			continue
		}
		avatar := ""
		if p, ok := profiles[otherID]; ok && !p.Hidden {
			avatar = p.AvatarURL
		}
		result = append(result, RelatedProfile{
			UserID:         otherID,
			Username:       u.Username,
			AvatarURL:      avatar,
			RelationshipID: rel.ID,
			Status:         rel.Status,
		})
	}
	return result, nil
}

func (s *Service) profilesByID(ctx context.Context, ids []int64) (map[int64]*model.Profile, error) {
	var profiles []model.Profile
	if err := s.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.Profile, len(profiles))
	for i := range profiles {
		byID[profiles[i].UserID] = &profiles[i]
	}
	return byID, nil
}

func userIDs(users []model.User) []int64 {
	ids := make([]int64, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	return ids
}
