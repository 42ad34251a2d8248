package model

import "time"

// Profile holds the public-facing settings of a user.
// A hidden profile is not discoverable and does not accept friend requests.
type Profile struct {
	UserID    int64     `gorm:"primaryKey" json:"user_id"`
	AvatarURL string    `gorm:"size:255" json:"avatar_url"`
	Hidden    bool      `gorm:"default:false" json:"hidden"`
	DailyGoal int       `gorm:"default:5" json:"daily_goal"`
	Streak    int       `gorm:"default:1" json:"streak"`
	UILang    string    `gorm:"size:8;default:en" json:"ui_lang"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
