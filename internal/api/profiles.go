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

type profileRoutes struct {
	ps service.ProfileServiceI
	rs service.RewardServiceI
}

func NewProfileRoutes(handler *gin.RouterGroup, ps service.ProfileServiceI, rs service.RewardServiceI, a *auth.SessionAuth) {
	r := &profileRoutes{ps: ps, rs: rs}

	handler.POST("/newsletter", r.SubscribeNewsletter)

	h := handler.Group("")
	h.Use(a.SessionMiddleware())
	{
		h.GET("/profile/me", r.GetMe)
		h.PATCH("/profile/me", r.UpdateMe)
		h.POST("/profile/me/avatar", r.UploadAvatar)
		h.GET("/profiles/:id", r.GetProfile)
		h.GET("/leaderboard", r.GetLeaderboard)
	}
}

type ProfileResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Email               string     `json:"email,omitempty"`
	Name                string     `json:"name"`
	AvatarURL           string     `json:"avatar_url"`
	Phone               string     `json:"phone,omitempty"`
	Address             string     `json:"address,omitempty"`
	Role                model.Role `json:"role,omitempty"`
	IsPremium           bool       `json:"is_premium"`
	PremiumBookUnlocked bool       `json:"premium_book_unlocked"`
	IsBoosted           bool       `json:"is_boosted"`
	BoostedUntil        *time.Time `json:"boosted_until,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func newProfileResponse(p *model.Profile) ProfileResponse {
	return ProfileResponse{
		ID:                  p.ID,
		Email:               p.Email,
		Name:                p.Name,
		AvatarURL:           p.AvatarURL,
		Phone:               p.Phone,
		Address:             p.Address,
		Role:                p.Role,
		IsPremium:           p.IsPremium,
		PremiumBookUnlocked: p.PremiumBookUnlocked,
		IsBoosted:           p.IsBoosted(time.Now()),
		BoostedUntil:        p.BoostedUntil,
		CreatedAt:           p.CreatedAt,
	}
}

// publicProfile hides contact details of other users.
func publicProfile(p *model.Profile) ProfileResponse {
	out := newProfileResponse(p)
	out.Email = ""
	out.Phone = ""
	out.Address = ""
	out.Role = ""
	return out
}

func (r *profileRoutes) GetMe(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	profile, err := r.ps.Me(c.Request.Context(), user.ID, user.Email)
	if err != nil {
		respondError(c, err, "get profile")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (r *profileRoutes) UpdateMe(c *gin.Context) {
	log := logger.Logger()

	user, ok := sessionUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	profile, err := r.ps.Update(c.Request.Context(), user.ID, &model.ProfileUpdate{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		respondError(c, err, "update profile")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

func (r *profileRoutes) UploadAvatar(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	file, ok := formUpload(c)
	if !ok {
		return
	}

	profile, err := r.ps.UploadAvatar(c.Request.Context(), user.ID, file)
	if err != nil {
		respondError(c, err, "upload avatar")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(profile))
}

func (r *profileRoutes) GetProfile(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	profile, err := r.ps.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get profile")
		return
	}

	c.JSON(http.StatusOK, publicProfile(profile))
}

type LeaderboardEntryResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	Stars     int       `json:"stars"`
}

func (r *profileRoutes) GetLeaderboard(c *gin.Context) {
	entries, err := r.rs.Leaderboard(c.Request.Context(), intQuery(c, "limit", 10))
	if err != nil {
		respondError(c, err, "get leaderboard")
		return
	}

	out := make([]LeaderboardEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntryResponse{
			UserID:    e.UserID,
			Name:      e.Name,
			AvatarURL: e.AvatarURL,
			Stars:     e.Stars,
		}
	}

	c.JSON(http.StatusOK, out)
}

type NewsletterRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (r *profileRoutes) SubscribeNewsletter(c *gin.Context) {
	var req NewsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}

	if err := r.ps.SubscribeNewsletter(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "subscribe to newsletter")
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribed": true})
}
