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

type offerRoutes struct {
	cs service.CatalogServiceI
	rs service.RewardServiceI
}

func NewOfferRoutes(handler *gin.RouterGroup, cs service.CatalogServiceI, rs service.RewardServiceI, a *auth.SessionAuth) {
	r := &offerRoutes{cs: cs, rs: rs}
	h := handler.Group("/offers")
	h.Use(a.SessionMiddleware())
	{
		h.POST("", r.Create)
		h.GET("", r.List)
		h.GET("/:id", r.Get)
		h.DELETE("/:id", r.Delete)
		h.POST("/:id/redeem", r.Redeem)
	}
}

type OfferRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	StarsPrice  int      `json:"stars_price"`
}

type OfferResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	StarsPrice  int       `json:"stars_price"`
	CreatedAt   time.Time `json:"created_at"`
}

func newOfferResponse(o *model.Offer) OfferResponse {
	tags := o.Tags
	if tags == nil {
		tags = []string{}
	}
	return OfferResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Title:       o.Title,
		Description: o.Description,
		Category:    o.Category,
		Tags:        tags,
		StarsPrice:  o.StarsPrice,
		CreatedAt:   o.CreatedAt,
	}
}

func (r *offerRoutes) Create(c *gin.Context) {
	log := logger.Logger()

	user, ok := sessionUser(c)
	if !ok {
		return
	}

	var req OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	offer, err := r.cs.CreateOffer(c.Request.Context(), user.ID, &model.Offer{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		StarsPrice:  req.StarsPrice,
	})
	if err != nil {
		respondError(c, err, "create offer")
		return
	}

	c.JSON(http.StatusCreated, newOfferResponse(offer))
}

func (r *offerRoutes) List(c *gin.Context) {
	filter := &model.OfferFilter{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Limit:    intQuery(c, "limit", 0),
		Offset:   intQuery(c, "offset", 0),
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		filter.UserID = &id
	}

	offers, err := r.cs.ListOffers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "list offers")
		return
	}

	out := make([]OfferResponse, len(offers))
	for i, o := range offers {
		out[i] = newOfferResponse(o)
	}
	c.JSON(http.StatusOK, out)
}

func (r *offerRoutes) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	offer, err := r.cs.GetOffer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get offer")
		return
	}

	c.JSON(http.StatusOK, newOfferResponse(offer))
}

func (r *offerRoutes) Delete(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := r.cs.DeleteOffer(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, err, "delete offer")
		return
	}

	c.Status(http.StatusNoContent)
}

func (r *offerRoutes) Redeem(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	balance, err := r.rs.Redeem(c.Request.Context(), user.ID, id)
	if err != nil {
		respondError(c, err, "redeem offer")
		return
	}

	c.JSON(http.StatusOK, newBalanceResponse(balance))
}
