package api

import (
	"net/http"
	"time"

	"glimo/internal/model"
	"glimo/internal/service"
	"glimo/pkg/auth"
	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type groupRoutes struct {
	gs service.GroupServiceI
	ms service.MessageServiceI
}

func NewGroupRoutes(handler *gin.RouterGroup, gs service.GroupServiceI, ms service.MessageServiceI, a *auth.SessionAuth, limit gin.HandlerFunc) {
	r := &groupRoutes{gs: gs, ms: ms}
	h := handler.Group("/groups")
	h.Use(a.SessionMiddleware())
	{
		h.POST("", r.Create)
		h.GET("", r.Mine)
		h.GET("/:id/members", r.Members)
		h.POST("/:id/members", r.AddMember)
		h.GET("/:id/messages", r.History)
		h.POST("/:id/messages", limit, r.Send)
	}
}

type GroupResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

func newGroupResponse(g *model.GroupChat) GroupResponse {
	return GroupResponse{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID, CreatedAt: g.CreatedAt}
}

type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

func (r *groupRoutes) Create(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	group, err := r.gs.Create(c.Request.Context(), user.ID, req.Name)
	if err != nil {
		respondError(c, err, "create group")
		return
	}

	c.JSON(http.StatusCreated, newGroupResponse(group))
}

func (r *groupRoutes) Mine(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	groups, err := r.gs.Mine(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "list groups")
		return
	}

	out := make([]GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = newGroupResponse(g)
	}
	c.JSON(http.StatusOK, out)
}

type GroupMemberResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

func (r *groupRoutes) Members(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	members, err := r.gs.Members(c.Request.Context(), user.ID, groupID)
	if err != nil {
		respondError(c, err, "list group members")
		return
	}

	out := make([]GroupMemberResponse, len(members))
	for i, m := range members {
		out[i] = GroupMemberResponse{UserID: m.UserID, Name: m.Name, JoinedAt: m.JoinedAt}
	}
	c.JSON(http.StatusOK, out)
}

type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

func (r *groupRoutes) AddMember(c *gin.Context) {
	log := logger.Logger()

	user, ok := sessionUser(c)
	if !ok {
		return
	}
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	if err := r.gs.AddMember(c.Request.Context(), user.ID, groupID, req.UserID); err != nil {
		respondError(c, err, "add group member")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group_id": groupID, "user_id": req.UserID})
}

func (r *groupRoutes) History(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	messages, err := r.ms.GroupHistory(c.Request.Context(), user.ID, groupID, intQuery(c, "limit", 0), int64Query(c, "before_id"))
	if err != nil {
		respondError(c, err, "get group messages")
		return
	}

	c.JSON(http.StatusOK, messagesResponse(messages))
}

func (r *groupRoutes) Send(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	msg, err := r.ms.SendGroup(c.Request.Context(), user.ID, groupID, req.Content, req.FileURL)
	if err != nil {
		respondError(c, err, "send group message")
		return
	}

	c.JSON(http.StatusCreated, msg)
}
