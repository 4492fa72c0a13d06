package model

import (
	"time"

	"github.com/google/uuid"
)

type StarsLedger struct {
	UserID         uuid.UUID
	StarsPurchased int
	StarsRemaining int
}

type SpinStatus struct {
	UserID             uuid.UUID
	FreeSpinsRemaining int
	LastSpinDate       time.Time
	DailyAllotment     int
}

type SpinRewardKind string

const (
	RewardStars         SpinRewardKind = "stars"
	RewardPremiumOffer  SpinRewardKind = "premium_offer"
	RewardFreeAISession SpinRewardKind = "free_ai_session"
	RewardProfileBoost  SpinRewardKind = "profile_boost"
	RewardNothing       SpinRewardKind = "try_again"
)

type SpinReward struct {
	Key    string
	Label  string
	Kind   SpinRewardKind
	Weight int
	Perks  Perks
}

type SpinPayment string

const (
	PaidWithFreeSpin SpinPayment = "free_spin"
	PaidWithStars    SpinPayment = "stars"
)

type SpinResult struct {
	Reward   SpinReward
	PaidWith SpinPayment
	Balance  *StarsLedger
	Spins    *SpinStatus
	RevealAt time.Time
}

// Perks is a bundle of reward effects applied in a single transaction.
type Perks struct {
	Stars       int
	FreeSpins   int
	PremiumBook bool
}

func (p Perks) IsZero() bool {
	return p.Stars == 0 && p.FreeSpins == 0 && !p.PremiumBook
}

type VoucherStatus string

const (
	VoucherPending   VoucherStatus = "pending"
	VoucherFulfilled VoucherStatus = "fulfilled"
)

type RewardVoucher struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      SpinRewardKind
	Status    VoucherStatus
	CreatedAt time.Time
}
