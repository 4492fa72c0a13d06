package api

import (
	"context"
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

type messageRoutes struct {
	ms service.MessageServiceI
	cs service.ConversationServiceI
}

// NewMessageRoutes registers private chats. limit guards message sends.
func NewMessageRoutes(handler *gin.RouterGroup, ms service.MessageServiceI, cs service.ConversationServiceI, a *auth.SessionAuth, limit gin.HandlerFunc) {
	r := &messageRoutes{ms: ms, cs: cs}
	h := handler.Group("")
	h.Use(a.SessionMiddleware())
	{
		h.GET("/conversations", r.ListConversations)
		h.GET("/chats/:peer_id/messages", r.History)
		h.POST("/chats/:peer_id/messages", limit, r.Send)

		h.POST("/messages/attachments", limit, r.UploadAttachment)
		h.POST("/messages/:message_id/pin", r.TogglePin)
		h.POST("/messages/:message_id/star", r.ToggleStar)
		h.POST("/messages/:message_id/reactions", r.React)
	}
}

type ConversationResponse struct {
	PeerID        uuid.UUID `json:"peer_id"`
	PeerName      string    `json:"peer_name"`
	PeerAvatarURL string    `json:"peer_avatar_url"`
	LastMessageID int64     `json:"last_message_id,string"`
	LastSenderID  uuid.UUID `json:"last_sender_id"`
	LastContent   string    `json:"last_content"`
	LastMessageAt time.Time `json:"last_message_at"`
}

func (r *messageRoutes) ListConversations(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	var before *model.ConversationCursor
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before"})
			return
		}
		before = &model.ConversationCursor{At: t, MessageID: int64Query(c, "before_id")}
	}

	summaries, err := r.cs.List(c.Request.Context(), user.ID, intQuery(c, "limit", 0), before)
	if err != nil {
		respondError(c, err, "list conversations")
		return
	}

	out := make([]ConversationResponse, len(summaries))
	for i, s := range summaries {
		out[i] = ConversationResponse{
			PeerID:        s.PeerID,
			PeerName:      s.PeerName,
			PeerAvatarURL: s.PeerAvatarURL,
			LastMessageID: s.LastMessageID,
			LastSenderID:  s.LastSenderID,
			LastContent:   s.LastContent,
			LastMessageAt: s.LastMessageAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *messageRoutes) History(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	peerID, ok := uuidParam(c, "peer_id")
	if !ok {
		return
	}

	messages, err := r.ms.History(c.Request.Context(), user.ID, peerID, intQuery(c, "limit", 0), int64Query(c, "before_id"))
	if err != nil {
		respondError(c, err, "get conversation")
		return
	}

	c.JSON(http.StatusOK, messagesResponse(messages))
}

func messagesResponse(messages []*model.Message) []*model.Message {
	if messages == nil {
		return []*model.Message{}
	}
	return messages
}

type SendMessageRequest struct {
	Content string `json:"content"`
	FileURL string `json:"file_url"`
}

func (r *messageRoutes) Send(c *gin.Context) {
	log := logger.Logger()

	user, ok := sessionUser(c)
	if !ok {
		return
	}
	peerID, ok := uuidParam(c, "peer_id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	msg, err := r.ms.Send(c.Request.Context(), user.ID, peerID, req.Content, req.FileURL)
	if err != nil {
		respondError(c, err, "send message")
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (r *messageRoutes) UploadAttachment(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	file, ok := formUpload(c)
	if !ok {
		return
	}

	url, err := r.ms.UploadAttachment(c.Request.Context(), user.ID, file)
	if err != nil {
		respondError(c, err, "upload attachment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"file_url": url})
}

func (r *messageRoutes) TogglePin(c *gin.Context) {
	r.toggle(c, r.ms.TogglePin, "pin message")
}

func (r *messageRoutes) ToggleStar(c *gin.Context) {
	r.toggle(c, r.ms.ToggleStar, "star message")
}

func (r *messageRoutes) toggle(c *gin.Context, fn func(ctx context.Context, userID uuid.UUID, messageID int64) (*model.Message, error), what string) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	messageID, ok := int64Param(c, "message_id")
	if !ok {
		return
	}

	msg, err := fn(c.Request.Context(), user.ID, messageID)
	if err != nil {
		respondError(c, err, what)
		return
	}

	c.JSON(http.StatusOK, msg)
}

type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

func (r *messageRoutes) React(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	messageID, ok := int64Param(c, "message_id")
	if !ok {
		return
	}

	var req ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji is required"})
		return
	}

	msg, err := r.ms.React(c.Request.Context(), user.ID, messageID, req.Emoji)
	if err != nil {
		respondError(c, err, "react to message")
		return
	}

	c.JSON(http.StatusOK, msg)
}
