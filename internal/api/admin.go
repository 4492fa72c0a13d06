package api

import (
	"net/http"

	"glimo/internal/middleware"
	"glimo/internal/model"
	"glimo/internal/service"
	"glimo/pkg/auth"
	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type AdminServices struct {
	Profiles      service.ProfileServiceI
	Rewards       service.RewardServiceI
	Conversations service.ConversationServiceI
	Catalog       service.CatalogServiceI
}

type adminRoutes struct {
	svc AdminServices
}

func NewAdminRoutes(handler *gin.RouterGroup, svc AdminServices, a *auth.SessionAuth, authz *middleware.Authorization) {
	r := &adminRoutes{svc: svc}
	h := handler.Group("/admin")
	h.Use(a.SessionMiddleware(), authz.AdminOnly())
	{
		h.GET("/profiles", r.ListProfiles)
		h.PATCH("/profiles/:id/role", r.SetRole)
		h.PATCH("/profiles/:id/premium", r.SetPremium)
		h.POST("/profiles/:id/perks", r.GrantPerks)
		h.POST("/profiles/:id/conversations/rebuild", r.RebuildConversations)
		h.POST("/vouchers/:id/fulfil", r.FulfillVoucher)
		h.POST("/catalog/:kind", r.CreateCatalogItem)
	}
}

func (r *adminRoutes) ListProfiles(c *gin.Context) {
	profiles, err := r.svc.Profiles.List(c.Request.Context(), intQuery(c, "limit", 50), intQuery(c, "offset", 0))
	if err != nil {
		respondError(c, err, "list profiles")
		return
	}

	out := make([]ProfileResponse, len(profiles))
	for i, p := range profiles {
		out[i] = newProfileResponse(p)
	}
	c.JSON(http.StatusOK, out)
}

type SetRoleRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

func (r *adminRoutes) SetRole(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}

	if err := r.svc.Profiles.SetRole(c.Request.Context(), id, req.Role); err != nil {
		respondError(c, err, "set role")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": id, "role": req.Role})
}

type SetPremiumRequest struct {
	IsPremium bool `json:"is_premium"`
}

func (r *adminRoutes) SetPremium(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req SetPremiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := r.svc.Profiles.SetPremium(c.Request.Context(), id, req.IsPremium); err != nil {
		respondError(c, err, "set premium")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": id, "is_premium": req.IsPremium})
}

type GrantPerksRequest struct {
	Stars       int  `json:"stars"`
	FreeSpins   int  `json:"free_spins"`
	PremiumBook bool `json:"premium_book"`
}

func (r *adminRoutes) GrantPerks(c *gin.Context) {
	log := logger.Logger()

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req GrantPerksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	perks := model.Perks{Stars: req.Stars, FreeSpins: req.FreeSpins, PremiumBook: req.PremiumBook}
	if err := r.svc.Rewards.GrantPerks(c.Request.Context(), id, perks); err != nil {
		respondError(c, err, "grant perks")
		return
	}

	if admin, ok := auth.UserFromContext(c); ok {
		log.Info("perks granted",
			zap.String("admin_id", admin.ID.String()),
			zap.String("user_id", id.String()),
			zap.Int("stars", req.Stars),
			zap.Int("free_spins", req.FreeSpins),
			zap.Bool("premium_book", req.PremiumBook))
	}

	c.JSON(http.StatusOK, gin.H{"granted": true})
}

func (r *adminRoutes) RebuildConversations(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	n, err := r.svc.Conversations.Rebuild(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "rebuild conversations")
		return
	}

	c.JSON(http.StatusOK, gin.H{"rebuilt": n})
}

func (r *adminRoutes) FulfillVoucher(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := r.svc.Rewards.FulfillVoucher(c.Request.Context(), id); err != nil {
		respondError(c, err, "fulfil voucher")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": model.VoucherFulfilled})
}

type CatalogItemRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	URL         string   `json:"url"`
	IsPremium   bool     `json:"is_premium"`
}

func (r *adminRoutes) CreateCatalogItem(c *gin.Context) {
	var req CatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	item, err := r.svc.Catalog.CreateItem(c.Request.Context(), &model.CatalogItem{
		Kind:        model.CatalogKind(c.Param("kind")),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		URL:         req.URL,
		IsPremium:   req.IsPremium,
	})
	if err != nil {
		respondError(c, err, "create catalog item")
		return
	}

	c.JSON(http.StatusCreated, newCatalogItemResponse(item))
}
