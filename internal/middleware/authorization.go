package middleware

import (
	"errors"
	"net/http"

	"glimo/internal/model"
	"glimo/internal/service"
	"glimo/pkg/auth"
	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

const ProfileContextKey = "profile"

type Authorization struct {
	profiles service.ProfileServiceI
}

func NewAuthorization(profiles service.ProfileServiceI) *Authorization {
	return &Authorization{
		profiles: profiles,
	}
}

// RequireRole lets the request through only when the session user's profile
// has role. The role is read from the store on every request.
func (a *Authorization) RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		user, ok := auth.UserFromContext(c)
		if !ok {
			log.Error("session user not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		profile, err := a.profiles.Get(c.Request.Context(), user.ID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "profile not found"})
				return
			}
			log.Error("failed to get profile", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if profile.Role != role {
			log.Info("unauthorized access attempt",
				zap.String("user_id", user.ID.String()),
				zap.String("required_role", string(role)))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": string(role) + " access required"})
			return
		}

		c.Set(ProfileContextKey, profile)
		c.Next()
	}
}

func (a *Authorization) AdminOnly() gin.HandlerFunc {
	return a.RequireRole(model.RoleAdmin)
}
