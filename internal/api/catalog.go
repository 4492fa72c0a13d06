package api

import (
	"net/http"
	"time"

	"glimo/internal/model"
	"glimo/internal/service"
	"glimo/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type catalogRoutes struct {
	cs service.CatalogServiceI
}

func NewCatalogRoutes(handler *gin.RouterGroup, cs service.CatalogServiceI, a *auth.SessionAuth) {
	r := &catalogRoutes{cs: cs}
	h := handler.Group("/catalog")
	h.Use(a.SessionMiddleware())
	{
		h.GET("/:kind", r.List)
	}
}

type CatalogItemResponse struct {
	ID          uuid.UUID         `json:"id"`
	Kind        model.CatalogKind `json:"kind"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Tags        []string          `json:"tags"`
	URL         string            `json:"url"`
	IsPremium   bool              `json:"is_premium"`
	CreatedAt   time.Time         `json:"created_at"`
}

func newCatalogItemResponse(item *model.CatalogItem) CatalogItemResponse {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	return CatalogItemResponse{
		ID:          item.ID,
		Kind:        item.Kind,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Tags:        tags,
		URL:         item.URL,
		IsPremium:   item.IsPremium,
		CreatedAt:   item.CreatedAt,
	}
}

func (r *catalogRoutes) List(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	kind := model.CatalogKind(c.Param("kind"))
	items, err := r.cs.ListItems(c.Request.Context(), user.ID, kind, c.Query("category"))
	if err != nil {
		respondError(c, err, "list catalog")
		return
	}

	out := make([]CatalogItemResponse, len(items))
	for i, item := range items {
		out[i] = newCatalogItemResponse(item)
	}
	c.JSON(http.StatusOK, out)
}
