package user

import (
	"context"
	"errors"

	"github.com/lingokit/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrUserNotFound is returned when a user id or username does not resolve.
var ErrUserNotFound = errors.New("user not found")

// ErrProfileNotFound is returned when a user has no profile row.
var ErrProfileNotFound = errors.New("profile not found")

// Service resolves users and owns profile settings.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a user Service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByUsername loads a user by exact username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetProfile loads the profile of the given user.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	var p model.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// EnsureProfile loads the user's profile, creating a default one when
// missing. Called at registration so every user carries a profile row.
func (s *Service) EnsureProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	var p model.Profile
	err := s.db.WithContext(ctx).
		Where(model.Profile{UserID: userID}).
		Attrs(model.Profile{DailyGoal: 5, Streak: 1, UILang: "en"}).
		FirstOrCreate(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProfileUpdate holds the mutable profile settings; nil fields are left
// untouched.
type ProfileUpdate struct {
	Hidden    *bool
	AvatarURL *string
	DailyGoal *int
	UILang    *string
}

// UpdateProfile applies the non-nil fields of the update to the user's
// profile and returns the result.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*model.Profile, error) {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if upd.Hidden != nil {
		changes["hidden"] = *upd.Hidden
	}
	if upd.AvatarURL != nil {
		changes["avatar_url"] = *upd.AvatarURL
	}
	if upd.DailyGoal != nil {
		changes["daily_goal"] = *upd.DailyGoal
	}
	if upd.UILang != nil {
		changes["ui_lang"] = *upd.UILang
	}
	if len(changes) == 0 {
		return p, nil
	}

	if err := s.db.WithContext(ctx).Model(p).Updates(changes).Error; err != nil {
		return nil, err
	}
	return p, nil
}
