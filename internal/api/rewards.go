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

type rewardRoutes struct {
	rs service.RewardServiceI
}

func NewRewardRoutes(handler *gin.RouterGroup, rs service.RewardServiceI, a *auth.SessionAuth) {
	r := &rewardRoutes{rs: rs}
	h := handler.Group("/rewards")
	h.Use(a.SessionMiddleware())
	{
		h.GET("/wheel", r.GetWheel)
		h.GET("/spin", r.GetSpinStatus)
		h.POST("/spin", r.Spin)
		h.GET("/balance", r.GetBalance)
		h.POST("/challenges/:badge_id", r.CompleteChallenge)
		h.GET("/vouchers", r.GetVouchers)
	}
}

type SpinRewardResponse struct {
	Key    string               `json:"key"`
	Label  string               `json:"label"`
	Kind   model.SpinRewardKind `json:"kind"`
	Weight int                  `json:"weight"`
}

type SpinStatusResponse struct {
	FreeSpinsRemaining int       `json:"free_spins_remaining"`
	DailyAllotment     int       `json:"daily_allotment"`
	LastSpinDate       time.Time `json:"last_spin_date"`
	SpinCost           int       `json:"spin_cost"`
}

type BalanceResponse struct {
	StarsPurchased int `json:"stars_purchased"`
	StarsRemaining int `json:"stars_remaining"`
}

type SpinResultResponse struct {
	Reward   SpinRewardResponse `json:"reward"`
	PaidWith model.SpinPayment  `json:"paid_with"`
	Balance  BalanceResponse    `json:"balance"`
	Spins    SpinStatusResponse `json:"spins"`
	RevealAt time.Time          `json:"reveal_at"`
}

func newSpinRewardResponse(r model.SpinReward) SpinRewardResponse {
	return SpinRewardResponse{Key: r.Key, Label: r.Label, Kind: r.Kind, Weight: r.Weight}
}

func newSpinStatusResponse(s *model.SpinStatus) SpinStatusResponse {
	return SpinStatusResponse{
		FreeSpinsRemaining: s.FreeSpinsRemaining,
		DailyAllotment:     s.DailyAllotment,
		LastSpinDate:       s.LastSpinDate,
		SpinCost:           service.SpinCost,
	}
}

func newBalanceResponse(b *model.StarsLedger) BalanceResponse {
	return BalanceResponse{StarsPurchased: b.StarsPurchased, StarsRemaining: b.StarsRemaining}
}

func (r *rewardRoutes) GetWheel(c *gin.Context) {
	rewards := r.rs.Rewards()
	out := make([]SpinRewardResponse, len(rewards))
	for i, reward := range rewards {
		out[i] = newSpinRewardResponse(reward)
	}
	c.JSON(http.StatusOK, out)
}

func (r *rewardRoutes) GetSpinStatus(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	status, err := r.rs.SpinStatus(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "get spin status")
		return
	}

	c.JSON(http.StatusOK, newSpinStatusResponse(status))
}

func (r *rewardRoutes) Spin(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	result, err := r.rs.Spin(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "spin")
		return
	}

	c.JSON(http.StatusOK, SpinResultResponse{
		Reward:   newSpinRewardResponse(result.Reward),
		PaidWith: result.PaidWith,
		Balance:  newBalanceResponse(result.Balance),
		Spins:    newSpinStatusResponse(result.Spins),
		RevealAt: result.RevealAt,
	})
}

func (r *rewardRoutes) GetBalance(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	balance, err := r.rs.Balance(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "get balance")
		return
	}

	c.JSON(http.StatusOK, newBalanceResponse(balance))
}

func (r *rewardRoutes) CompleteChallenge(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	badgeID := c.Param("badge_id")
	credited, err := r.rs.CompleteChallenge(c.Request.Context(), user.ID, badgeID)
	if err != nil {
		respondError(c, err, "complete challenge")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"badge_id": badgeID,
		"credited": credited,
		"stars":    service.Challenges[badgeID],
	})
}

type VoucherResponse struct {
	ID        uuid.UUID            `json:"id"`
	Kind      model.SpinRewardKind `json:"kind"`
	Status    model.VoucherStatus  `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

func (r *rewardRoutes) GetVouchers(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}

	vouchers, err := r.rs.Vouchers(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "list vouchers")
		return
	}

	out := make([]VoucherResponse, len(vouchers))
	for i, v := range vouchers {
		out[i] = VoucherResponse{ID: v.ID, Kind: v.Kind, Status: v.Status, CreatedAt: v.CreatedAt}
	}

	c.JSON(http.StatusOK, out)
}
