package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lingokit/server/audit"
	mw "github.com/lingokit/server/middleware"
	"github.com/lingokit/server/relationship"
	"github.com/lingokit/server/user"
)

// RelationshipHandler handles friendship and blocking REST endpoints.
type RelationshipHandler struct {
	rels  *relationship.Service
	audit *audit.Service
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(rels *relationship.Service, auditSvc *audit.Service) *RelationshipHandler {
	return &RelationshipHandler{rels: rels, audit: auditSvc}
}

type createRequestBody struct {
	RecipientID int64 `json:"recipient_id" binding:"required"`
}

// Create handles POST /api/relationships.
func (h *RelationshipHandler) Create(c *gin.Context) {
	userID := mw.GetUserID(c)

	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	rel, err := h.rels.CreateRequest(c.Request.Context(), userID, body.RecipientID)
	h.auditAction(c, userID, "relationship_request", body, rel, err, start)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rel)
}

type manageBody struct {
	Action relationship.Action `json:"action" binding:"required"`
}

// Manage handles PATCH /api/relationships/:id.
func (h *RelationshipHandler) Manage(c *gin.Context) {
	userID := mw.GetUserID(c)

	relID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var body manageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	rel, err := h.rels.Manage(c.Request.Context(), userID, relID, body.Action)
	h.auditAction(c, userID, "relationship_"+string(body.Action), body, rel, err, start)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

// Block handles POST /api/relationships/block/:id. The path id is the user
// to block; a relationship row is created when none exists.
func (h *RelationshipHandler) Block(c *gin.Context) {
	userID := mw.GetUserID(c)

	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	start := time.Now()
	rel, err := h.rels.BlockUser(c.Request.Context(), userID, targetID)
	h.auditAction(c, userID, "relationship_block_user", gin.H{"target_id": targetID}, rel, err, start)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

// ListFriends handles GET /api/relationships.
func (h *RelationshipHandler) ListFriends(c *gin.Context) {
	list, err := h.rels.Friends(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": list})
}

// ListBlocked handles GET /api/relationships/blocked.
func (h *RelationshipHandler) ListBlocked(c *gin.Context) {
	list, err := h.rels.Blocked(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": list})
}

// ListSent handles GET /api/relationships/requests/sent.
func (h *RelationshipHandler) ListSent(c *gin.Context) {
	list, err := h.rels.SentRequests(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}

// ListReceived handles GET /api/relationships/requests/received.
func (h *RelationshipHandler) ListReceived(c *gin.Context) {
	list, err := h.rels.ReceivedRequests(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}

// SearchAll handles GET /api/relationships/search/all?username=.
func (h *RelationshipHandler) SearchAll(c *gin.Context) {
	fragment := c.Query("username")
	if fragment == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username query parameter required"})
		return
	}
	list, err := h.rels.SearchNewFriends(c.Request.Context(), mw.GetUserID(c), fragment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

// SearchFriends handles GET /api/relationships/search/friends?username=.
func (h *RelationshipHandler) SearchFriends(c *gin.Context) {
	fragment := c.Query("username")
	if fragment == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username query parameter required"})
		return
	}
	list, err := h.rels.SearchFriends(c.Request.Context(), mw.GetUserID(c), fragment)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": list})
}

func (h *RelationshipHandler) auditAction(c *gin.Context, userID int64, action string, req, resp interface{}, err error, start time.Time) {
	if h.audit == nil {
		return
	}
	entry := audit.AuditEntry{
		TraceID:    mw.GetTraceID(c),
		UserID:     &userID,
		Action:     action,
		Request:    req,
		Response:   resp,
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	h.audit.Log(entry)
}

// writeDomainError maps service errors onto HTTP responses: business-rule
// violations are 400, missing rows are 404, anything else is a 500.
func writeDomainError(c *gin.Context, err error) {
	var relErr *relationship.Error
	switch {
	case errors.As(err, &relErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": relErr.Reason})
	case errors.Is(err, relationship.ErrNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, user.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
