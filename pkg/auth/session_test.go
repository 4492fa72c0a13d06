package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"glimo/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Initialize("error", "json")
}

func TestSessionAuth_Verify(t *testing.T) {
	a := NewSessionAuth("secret", "glimo")
	user := SessionUser{ID: uuid.New(), Email: "ada@example.com"}

	tests := []struct {
		name        string
		token       func() string
		expectedErr error
	}{
		{
			name: "Valid token",
			token: func() string {
				token, err := a.Issue(user, time.Hour)
				require.NoError(t, err)
				return token
			},
		},
		{
			name:        "Empty token",
			token:       func() string { return "" },
			expectedErr: ErrNoSession,
		},
		{
			name: "Wrong secret",
			token: func() string {
				token, err := NewSessionAuth("other", "glimo").Issue(user, time.Hour)
				require.NoError(t, err)
				return token
			},
			expectedErr: ErrInvalidSession,
		},
		{
			name: "Wrong audience",
			token: func() string {
				token, err := NewSessionAuth("secret", "elsewhere").Issue(user, time.Hour)
				require.NoError(t, err)
				return token
			},
			expectedErr: ErrInvalidSession,
		},
		{
			name: "Expired",
			token: func() string {
				token, err := a.Issue(user, -time.Minute)
				require.NoError(t, err)
				return token
			},
			expectedErr: ErrInvalidSession,
		},
		{
			name:        "Garbage",
			token:       func() string { return "not.a.jwt" },
			expectedErr: ErrInvalidSession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Verify(tt.token())
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
			assert.Equal(t, user.Email, got.Email)
		})
	}
}

func TestSessionMiddleware(t *testing.T) {
	a := NewSessionAuth("secret", "")
	user := SessionUser{ID: uuid.New(), Email: "ada@example.com"}
	token, err := a.Issue(user, time.Hour)
	require.NoError(t, err)

	whoami := func(c *gin.Context) {
		u, ok := UserFromContext(c)
		require.True(t, ok)
		c.String(http.StatusOK, u.ID.String())
	}
	router := gin.New()
	router.GET("/me", a.SessionMiddleware(), whoami)
	router.GET("/realtime", a.SessionMiddleware(WithQueryToken()), whoami)

	withQueryToken := func(req *http.Request) {
		q := req.URL.Query()
		q.Set("access_token", token)
		req.URL.RawQuery = q.Encode()
	}

	tests := []struct {
		name     string
		path     string
		prepare  func(req *http.Request)
		expected int
	}{
		{
			name:     "No credentials",
			prepare:  func(req *http.Request) {},
			expected: http.StatusUnauthorized,
		},
		{
			name: "Bearer header",
			prepare: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token)
			},
			expected: http.StatusOK,
		},
		{
			name: "Session cookie",
			prepare: func(req *http.Request) {
				req.AddCookie(&http.Cookie{Name: "session", Value: token})
			},
			expected: http.StatusOK,
		},
		{
			name:     "Query parameter is ignored on regular routes",
			prepare:  withQueryToken,
			expected: http.StatusUnauthorized,
		},
		{
			name:     "Query parameter on the websocket route",
			path:     "/realtime",
			prepare:  withQueryToken,
			expected: http.StatusOK,
		},
		{
			name: "Tampered token",
			prepare: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token+"x")
			},
			expected: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path == "" {
				path = "/me"
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			tt.prepare(req)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
			if tt.expected == http.StatusOK {
				assert.Equal(t, user.ID.String(), w.Body.String())
			}
		})
	}
}
