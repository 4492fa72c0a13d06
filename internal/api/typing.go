package api

import (
	"net/http"

	"glimo/internal/model"
	"glimo/internal/service"
	"glimo/pkg/auth"

	"github.com/gin-gonic/gin"
)

type typingRoutes struct {
	ts service.TypingServiceI
}

func NewTypingRoutes(handler *gin.RouterGroup, ts service.TypingServiceI, a *auth.SessionAuth) {
	r := &typingRoutes{ts: ts}
	h := handler.Group("/typing")
	h.Use(a.SessionMiddleware())
	{
		h.POST("/:scope", r.Announce)
		h.GET("/:scope", r.Active)
	}
}

func (r *typingRoutes) Announce(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	emitted, err := r.ts.Announce(c.Request.Context(), user.ID, c.Param("scope"))
	if err != nil {
		respondError(c, err, "announce typing")
		return
	}

	c.JSON(http.StatusOK, gin.H{"emitted": emitted})
}

func (r *typingRoutes) Active(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	events, err := r.ts.Active(c.Request.Context(), user.ID, c.Param("scope"))
	if err != nil {
		respondError(c, err, "list typing users")
		return
	}
	if events == nil {
		events = []*model.TypingEvent{}
	}

	c.JSON(http.StatusOK, events)
}
