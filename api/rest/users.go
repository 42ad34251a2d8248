package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	mw "github.com/lingokit/server/middleware"
	"github.com/lingokit/server/relationship"
	"github.com/lingokit/server/user"
)

// UserHandler handles profile REST endpoints.
type UserHandler struct {
	users *user.Service
	rels  *relationship.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *user.Service, rels *relationship.Service) *UserHandler {
	return &UserHandler{users: users, rels: rels}
}

// MyProfile handles GET /api/me/profile.
func (h *UserHandler) MyProfile(c *gin.Context) {
	userID := mw.GetUserID(c)

	u, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	p, err := h.users.EnsureProfile(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "profile": p})
}

type updateProfileBody struct {
	Hidden    *bool   `json:"hidden"`
	AvatarURL *string `json:"avatar_url"`
	DailyGoal *int    `json:"daily_goal" binding:"omitempty,min=1,max=100"`
	UILang    *string `json:"ui_lang" binding:"omitempty,len=2"`
}

// UpdateMyProfile handles PATCH /api/me/profile. Absent fields are left
// untouched.
func (h *UserHandler) UpdateMyProfile(c *gin.Context) {
	userID := mw.GetUserID(c)

	var body updateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.users.UpdateProfile(c.Request.Context(), userID, user.ProfileUpdate{
		Hidden:    body.Hidden,
		AvatarURL: body.AvatarURL,
		DailyGoal: body.DailyGoal,
		UILang:    body.UILang,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// Profile handles GET /api/users/:id/profile. The response shape depends on
// the relationship between the viewer and the profile: invisible profiles
// only expose the username and the relationship info.
func (h *UserHandler) Profile(c *gin.Context) {
	viewerID := mw.GetUserID(c)

	profileID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	u, err := h.users.GetUser(c.Request.Context(), profileID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	p, err := h.users.GetProfile(c.Request.Context(), profileID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	info, err := h.rels.Info(c.Request.Context(), viewerID, profileID, p.Hidden)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if !info.ProfileVisible {
		c.JSON(http.StatusOK, gin.H{
			"user_id":      u.ID,
			"username":     u.Username,
			"relationship": info,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      u.ID,
		"username":     u.Username,
		"avatar_url":   p.AvatarURL,
		"daily_goal":   p.DailyGoal,
		"streak":       p.Streak,
		"relationship": info,
	})
}
