package api

import (
	"errors"
	"io"
	"net/http"

	"glimo/internal/service"
	"glimo/pkg/auth"
	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

type paymentRoutes struct {
	ps service.PaymentServiceI
}

// NewPaymentRoutes registers checkout behind the session guard and the
// provider webhook without it. limit guards checkout creation.
func NewPaymentRoutes(handler *gin.RouterGroup, ps service.PaymentServiceI, a *auth.SessionAuth, limit gin.HandlerFunc) {
	r := &paymentRoutes{ps: ps}

	handler.POST("/webhooks/payments", r.Webhook)

	h := handler.Group("/checkout")
	h.Use(a.SessionMiddleware(), limit)
	{
		h.POST("/stars", r.CheckoutStars)
		h.POST("/premium", r.CheckoutPremium)
	}
}

type CheckoutStarsRequest struct {
	Bundle string `json:"bundle" binding:"required"`
}

type CheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (r *paymentRoutes) CheckoutStars(c *gin.Context) {
	log := logger.Logger()

	user, ok := sessionUser(c)
	if !ok {
		return
	}

	var req CheckoutStarsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := r.ps.CheckoutStars(c.Request.Context(), user.ID, user.Email, req.Bundle)
	if err != nil {
		respondError(c, err, "create stars checkout")
		return
	}

	c.JSON(http.StatusOK, CheckoutResponse{ID: session.ID, URL: session.URL})
}

func (r *paymentRoutes) CheckoutPremium(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	session, err := r.ps.CheckoutPremium(c.Request.Context(), user.ID, user.Email)
	if err != nil {
		respondError(c, err, "create premium checkout")
		return
	}

	c.JSON(http.StatusOK, CheckoutResponse{ID: session.ID, URL: session.URL})
}

// Webhook answers 400 for a bad signature and 500 for store failures so the
// provider retries; everything else is acknowledged.
func (r *paymentRoutes) Webhook(c *gin.Context) {
	log := logger.Logger()

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		log.Error("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err = r.ps.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			log.Warn("webhook signature rejected", zap.String("ip", c.ClientIP()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		log.Error("failed to handle webhook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
