package api

import (
	"context"
	"net/http"

	"glimo/internal/model"
	"glimo/internal/service"
	"glimo/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type partnershipRoutes struct {
	ps service.PartnershipServiceI
}

func NewPartnershipRoutes(handler *gin.RouterGroup, ps service.PartnershipServiceI, a *auth.SessionAuth) {
	r := &partnershipRoutes{ps: ps}
	h := handler.Group("/partnerships")
	h.Use(a.SessionMiddleware())
	{
		h.POST("", r.Request)
		h.POST("/:sender_id/respond", r.Respond)
		h.GET("/incoming", r.Incoming)
		h.GET("/outgoing", r.Outgoing)
	}
}

type PartnershipRequestBody struct {
	ReceiverID uuid.UUID `json:"receiver_id" binding:"required"`
}

func (r *partnershipRoutes) Request(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	var req PartnershipRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiver_id is required"})
		return
	}

	out, err := r.ps.Request(c.Request.Context(), user.ID, req.ReceiverID)
	if err != nil {
		respondError(c, err, "request partnership")
		return
	}

	c.JSON(http.StatusOK, out)
}

type RespondPartnershipBody struct {
	Accept bool `json:"accept"`
}

func (r *partnershipRoutes) Respond(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	senderID, ok := uuidParam(c, "sender_id")
	if !ok {
		return
	}

	var req RespondPartnershipBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	out, err := r.ps.Respond(c.Request.Context(), user.ID, senderID, req.Accept)
	if err != nil {
		respondError(c, err, "respond to partnership")
		return
	}

	c.JSON(http.StatusOK, out)
}

func (r *partnershipRoutes) Incoming(c *gin.Context) {
	r.list(c, r.ps.Incoming)
}

func (r *partnershipRoutes) Outgoing(c *gin.Context) {
	r.list(c, r.ps.Outgoing)
}

func (r *partnershipRoutes) list(c *gin.Context, fn func(ctx context.Context, userID uuid.UUID) ([]*model.PartnershipRequest, error)) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	requests, err := fn(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "list partnership requests")
		return
	}
	if requests == nil {
		requests = []*model.PartnershipRequest{}
	}

	c.JSON(http.StatusOK, requests)
}
