package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ContextKey   = "session_user"
	cookieName   = "session"
	queryParam   = "access_token"
	bearerScheme = "Bearer "
)

var (
	ErrNoSession      = errors.New("no session")
	ErrInvalidSession = errors.New("invalid session")
)

type SessionUser struct {
	ID    uuid.UUID
	Email string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type SessionAuth struct {
	secret   []byte
	audience string
	now      func() time.Time
}

func NewSessionAuth(secret, audience string) *SessionAuth {
	return &SessionAuth{
		secret:   []byte(secret),
		audience: audience,
		now:      time.Now,
	}
}

// Verify checks an HS256 session token issued by the identity provider and
// returns the user it was issued for.
func (a *SessionAuth) Verify(token string) (*SessionUser, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidSession)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrInvalidSession)
	}

	return &SessionUser{ID: id, Email: claims.Email}, nil
}

// Issue signs a session token. Used by tests and local tooling; production
// tokens come from the identity provider.
func (a *SessionAuth) Issue(user SessionUser, ttl time.Duration) (string, error) {
	now := a.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: user.Email,
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

type middlewareOptions struct {
	queryToken bool
}

type MiddlewareOption func(*middlewareOptions)

// WithQueryToken also accepts the token from the access_token query
// parameter. Only websocket upgrades need it, since browsers cannot set
// headers on them.
func WithQueryToken() MiddlewareOption {
	return func(o *middlewareOptions) { o.queryToken = true }
}

func (a *SessionAuth) SessionMiddleware(opts ...MiddlewareOption) gin.HandlerFunc {
	var o middlewareOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *gin.Context) {
		log := logger.Logger()

		user, err := a.Verify(tokenFromRequest(c, o.queryToken))
		if err != nil {
			log.Info("rejected session", zap.Error(err), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(ContextKey, user)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context, queryToken bool) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerScheme) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerScheme))
	}
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	if queryToken {
		return c.Query(queryParam)
	}
	return ""
}

// UserFromContext returns the session user set by SessionMiddleware.
func UserFromContext(c *gin.Context) (*SessionUser, bool) {
	value, exists := c.Get(ContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*SessionUser)
	return user, ok
}
