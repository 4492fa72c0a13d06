package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"glimo/internal/model"
	"glimo/internal/service"
	"glimo/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubProfiles struct {
	service.ProfileServiceI
	profiles map[uuid.UUID]*model.Profile
}

func (s *stubProfiles) Get(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return p, nil
}

func TestAuthorization_AdminOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)

	admin, member, ghost := uuid.New(), uuid.New(), uuid.New()
	a := NewAuthorization(&stubProfiles{profiles: map[uuid.UUID]*model.Profile{
		admin:  {ID: admin, Role: model.RoleAdmin},
		member: {ID: member, Role: model.RoleUser},
	}})

	tests := []struct {
		name           string
		user           *auth.SessionUser
		expectedStatus int
	}{
		{"No session", nil, http.StatusUnauthorized},
		{"Admin", &auth.SessionUser{ID: admin, Email: "root@example.com"}, http.StatusOK},
		{"Regular user", &auth.SessionUser{ID: member, Email: "user@example.com"}, http.StatusForbidden},
		{"No profile", &auth.SessionUser{ID: ghost, Email: "ghost@example.com"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/admin", func(c *gin.Context) {
				if tt.user != nil {
					c.Set(auth.ContextKey, tt.user)
				}
				c.Next()
			}, a.AdminOnly(), func(c *gin.Context) {
				_, ok := c.Get(ProfileContextKey)
				assert.True(t, ok)
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
