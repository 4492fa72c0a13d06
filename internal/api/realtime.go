package api

import (
	"net/http"
	"net/url"

	"glimo/internal/realtime"
	"glimo/pkg/auth"
	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type realtimeRoutes struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewRealtimeRoutes registers the change-feed websocket. Browsers pass the
// session in the access_token query parameter. An empty allowedOrigins
// accepts any origin.
func NewRealtimeRoutes(handler *gin.RouterGroup, hub *realtime.Hub, a *auth.SessionAuth, allowedOrigins []string) {
	r := &realtimeRoutes{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}

	h := handler.Group("/realtime")
	h.Use(a.SessionMiddleware(auth.WithQueryToken()))
	h.GET("", r.handleWebSocket)
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}

	hosts := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		hosts[origin] = struct{}{}
	}

	return func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := hosts[u.Scheme+"://"+u.Host]
		return ok
	}
}

func (r *realtimeRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	user, ok := sessionUser(c)
	if !ok {
		return
	}

	conn, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	log.Info("realtime client connected", zap.String("user_id", user.ID.String()))

	realtime.NewClient(user.ID, conn).Serve(c.Request.Context(), r.hub)

	log.Info("realtime client disconnected", zap.String("user_id", user.ID.String()))
}
