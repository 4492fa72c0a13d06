package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"glimo/internal/model"
	"glimo/internal/repository"
	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/google/uuid"
)

const (
	SpinCost           = 5
	StandardDailySpins = 2
	PremiumDailySpins  = 5
	RevealDelay        = 3 * time.Second

	maxLeaderboardSize = 100
)

// SpinRewards is the wheel. Weights sum to 96.
var SpinRewards = []model.SpinReward{
	{Key: "stars_5", Label: "5 Stars", Kind: model.RewardStars, Weight: 25, Perks: model.Perks{Stars: 5}},
	{Key: "stars_10", Label: "10 Stars", Kind: model.RewardStars, Weight: 15, Perks: model.Perks{Stars: 10}},
	{Key: "stars_20", Label: "20 Stars", Kind: model.RewardStars, Weight: 8, Perks: model.Perks{Stars: 20}},
	{Key: "premium_offer", Label: "Premium Offer", Kind: model.RewardPremiumOffer, Weight: 3,
		Perks: model.Perks{Stars: 25, FreeSpins: 5, PremiumBook: true}},
	{Key: "free_ai_session", Label: "Free AI Session", Kind: model.RewardFreeAISession, Weight: 5},
	{Key: "profile_boost", Label: "Profile Boost", Kind: model.RewardProfileBoost, Weight: 5},
	{Key: "try_again", Label: "Try Again", Kind: model.RewardNothing, Weight: 35},
}

// Challenges maps badge ids to the stars awarded on first completion.
var Challenges = map[string]int{
	"complete_profile":  10,
	"first_message":     5,
	"first_offer":       10,
	"first_partnership": 10,
	"first_spin":        5,
}

type RewardService struct {
	repo    RewardRepository
	rewards []model.SpinReward
	total   int
	now     func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRewardService(repo RewardRepository) *RewardService {
	return newRewardService(repo, rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
}

func newRewardService(repo RewardRepository, rnd *rand.Rand, now func() time.Time) *RewardService {
	total := 0
	for _, r := range SpinRewards {
		total += r.Weight
	}

	return &RewardService{
		repo:    repo,
		rewards: SpinRewards,
		total:   total,
		now:     now,
		rnd:     rnd,
	}
}

func (s *RewardService) Rewards() []model.SpinReward {
	out := make([]model.SpinReward, len(s.rewards))
	copy(out, s.rewards)
	return out
}

// Draw picks a reward by cumulative scan of the weights against a uniform
// value in [0, total).
func (s *RewardService) Draw() model.SpinReward {
	s.mu.Lock()
	roll := s.rnd.Float64() * float64(s.total)
	s.mu.Unlock()

	cumulative := 0
	for _, reward := range s.rewards {
		cumulative += reward.Weight
		if roll < float64(cumulative) {
			return reward
		}
	}

	return s.rewards[len(s.rewards)-1]
}

func DailyAllotment(profile *model.Profile) int {
	if profile.IsPremium {
		return PremiumDailySpins
	}
	return StandardDailySpins
}

func (s *RewardService) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return a.Format(time.DateOnly) == b.Format(time.DateOnly)
}

func (s *RewardService) profile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return profile, nil
}

// SpinStatus returns today's spin record, creating it or restoring the daily
// allotment when the stored date is not today.
func (s *RewardService) SpinStatus(ctx context.Context, userID uuid.UUID) (*model.SpinStatus, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	allotment := DailyAllotment(profile)
	today := s.today()

	status, err := s.repo.GetUserSpins(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		err = s.repo.CreateUserSpins(ctx, &model.SpinStatus{
			UserID:             userID,
			FreeSpinsRemaining: allotment,
			LastSpinDate:       today,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create spin record: %w", err)
		}
		status, err = s.repo.GetUserSpins(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get spin record: %w", err)
	}

	if !sameDay(status.LastSpinDate, today) {
		if err := s.repo.ResetDailySpins(ctx, userID, today, allotment); err != nil {
			return nil, fmt.Errorf("failed to reset daily spins: %w", err)
		}
		status, err = s.repo.GetUserSpins(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get spin record: %w", err)
		}
	}

	status.DailyAllotment = allotment
	return status, nil
}

// Spin pays for one spin with a free spin when available, with SpinCost stars
// otherwise, and settles the drawn reward. Ineligible users get
// ErrSpinNotAvailable and nothing is written.
func (s *RewardService) Spin(ctx context.Context, userID uuid.UUID) (*model.SpinResult, error) {
	log := logger.Logger()

	status, err := s.SpinStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	var paidWith model.SpinPayment
	switch {
	case status.FreeSpinsRemaining > 0:
		paidWith = model.PaidWithFreeSpin
	case balance.StarsRemaining >= SpinCost:
		paidWith = model.PaidWithStars
	default:
		return nil, ErrSpinNotAvailable
	}

	reward := s.Draw()

	paidWith, err = s.settle(ctx, userID, reward, paidWith)
	if err != nil {
		return nil, err
	}

	log.Info("spin settled",
		zap.String("user_id", userID.String()),
		zap.String("reward", reward.Key),
		zap.String("paid_with", string(paidWith)))

	balance, err = s.repo.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	spins, err := s.repo.GetUserSpins(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get spin record: %w", err)
	}
	spins.DailyAllotment = status.DailyAllotment

	return &model.SpinResult{
		Reward:   reward,
		PaidWith: paidWith,
		Balance:  balance,
		Spins:    spins,
		RevealAt: s.now().UTC().Add(RevealDelay),
	}, nil
}

// settle charges and applies reward. When the last free spin was taken by a
// concurrent spin, the charge falls back to stars once.
func (s *RewardService) settle(ctx context.Context, userID uuid.UUID, reward model.SpinReward, paidWith model.SpinPayment) (model.SpinPayment, error) {
	err := s.repo.ApplySpinReward(ctx, userID, reward, paidWith, SpinCost)
	if errors.Is(err, repository.ErrNoFreeSpins) {
		balance, berr := s.repo.GetBalance(ctx, userID)
		if berr != nil {
			return "", fmt.Errorf("failed to get balance: %w", berr)
		}
		if balance.StarsRemaining < SpinCost {
			return "", ErrSpinNotAvailable
		}
		paidWith = model.PaidWithStars
		err = s.repo.ApplySpinReward(ctx, userID, reward, paidWith, SpinCost)
	}
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStars) || errors.Is(err, repository.ErrNoFreeSpins) {
			return "", ErrInsufficientStars
		}
		return "", fmt.Errorf("failed to settle spin: %w", err)
	}
	return paidWith, nil
}

func (s *RewardService) Balance(ctx context.Context, userID uuid.UUID) (*model.StarsLedger, error) {
	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// Redeem pays the stars price of an offer.
func (s *RewardService) Redeem(ctx context.Context, userID, offerID uuid.UUID) (*model.StarsLedger, error) {
	offer, err := s.repo.GetOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	if offer.UserID == userID {
		return nil, fmt.Errorf("%w: cannot redeem your own offer", ErrForbidden)
	}

	if offer.StarsPrice > 0 {
		if err := s.repo.SpendStars(ctx, userID, offer.StarsPrice); err != nil {
			if errors.Is(err, repository.ErrInsufficientStars) {
				return nil, ErrInsufficientStars
			}
			return nil, fmt.Errorf("failed to spend stars: %w", err)
		}
	}

	return s.Balance(ctx, userID)
}

// CompleteChallenge awards the stars of a challenge the first time the user
// completes it. It reports whether stars were credited.
func (s *RewardService) CompleteChallenge(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error) {
	stars, ok := Challenges[badgeID]
	if !ok {
		return false, ErrNotFound
	}

	credited, err := s.repo.CompleteChallenge(ctx, userID, badgeID, stars)
	if err != nil {
		return false, fmt.Errorf("failed to complete challenge: %w", err)
	}
	return credited, nil
}

func (s *RewardService) GrantPerks(ctx context.Context, userID uuid.UUID, perks model.Perks) error {
	if perks.Stars < 0 || perks.FreeSpins < 0 || perks.IsZero() {
		return fmt.Errorf("%w: perks must be positive", ErrInvalidInput)
	}

	if perks.FreeSpins > 0 {
		if _, err := s.SpinStatus(ctx, userID); err != nil {
			return err
		}
	}

	if err := s.repo.GrantPerks(ctx, userID, perks); err != nil {
		return fmt.Errorf("failed to grant perks: %w", err)
	}
	return nil
}

func (s *RewardService) Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	if limit <= 0 || limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	entries, err := s.repo.GetTopUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return entries, nil
}

func (s *RewardService) Vouchers(ctx context.Context, userID uuid.UUID) ([]*model.RewardVoucher, error) {
	vouchers, err := s.repo.ListVouchers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	return vouchers, nil
}

func (s *RewardService) FulfillVoucher(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.FulfillVoucher(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fulfil voucher: %w", err)
	}
	return nil
}
