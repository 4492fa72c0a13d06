package service

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"glimo/internal/model"
	"glimo/internal/repository"
	"glimo/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestRewardService(repo RewardRepository) *RewardService {
	return newRewardService(repo, rand.New(rand.NewSource(42)), func() time.Time { return fixedNow })
}

func TestRewardService_SpinStatus(t *testing.T) {
	userID := uuid.New()
	today := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	tests := []struct {
		name          string
		mockSetup     func(m *mocks.MockRepository)
		expectedFree  int
		expectedAllot int
		expectedError error
	}{
		{
			name: "User not found",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("GetProfile", mock.Anything, userID).Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrUserNotFound,
		},
		{
			name: "First visit creates the record",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("GetProfile", mock.Anything, userID).Return(&model.Profile{ID: userID}, nil)
				m.On("GetUserSpins", mock.Anything, userID).Return(nil, repository.ErrNotFound).Once()
				m.On("CreateUserSpins", mock.Anything, mock.MatchedBy(func(s *model.SpinStatus) bool {
					return s.UserID == userID && s.FreeSpinsRemaining == StandardDailySpins && s.LastSpinDate.Equal(today)
				})).Return(nil)
				m.On("GetUserSpins", mock.Anything, userID).Return(&model.SpinStatus{
					UserID: userID, FreeSpinsRemaining: StandardDailySpins, LastSpinDate: today,
				}, nil).Once()
			},
			expectedFree:  StandardDailySpins,
			expectedAllot: StandardDailySpins,
		},
		{
			name: "New day restores the premium allotment",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("GetProfile", mock.Anything, userID).Return(&model.Profile{ID: userID, IsPremium: true}, nil)
				m.On("GetUserSpins", mock.Anything, userID).Return(&model.SpinStatus{
					UserID: userID, FreeSpinsRemaining: 0, LastSpinDate: yesterday,
				}, nil).Once()
				m.On("ResetDailySpins", mock.Anything, userID, today, PremiumDailySpins).Return(nil)
				m.On("GetUserSpins", mock.Anything, userID).Return(&model.SpinStatus{
					UserID: userID, FreeSpinsRemaining: PremiumDailySpins, LastSpinDate: today,
				}, nil).Once()
			},
			expectedFree:  PremiumDailySpins,
			expectedAllot: PremiumDailySpins,
		},
		{
			name: "Same day keeps the remaining spins",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("GetProfile", mock.Anything, userID).Return(&model.Profile{ID: userID}, nil)
				m.On("GetUserSpins", mock.Anything, userID).Return(&model.SpinStatus{
					UserID: userID, FreeSpinsRemaining: 1, LastSpinDate: today,
				}, nil).Once()
			},
			expectedFree:  1,
			expectedAllot: StandardDailySpins,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockRepository{}
			tt.mockSetup(mockRepo)
			service := newTestRewardService(mockRepo)

			status, err := service.SpinStatus(context.Background(), userID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedFree, status.FreeSpinsRemaining)
			assert.Equal(t, tt.expectedAllot, status.DailyAllotment)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestRewardService_Spin(t *testing.T) {
	userID := uuid.New()
	today := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	spins := func(free int) *model.SpinStatus {
		return &model.SpinStatus{UserID: userID, FreeSpinsRemaining: free, LastSpinDate: today}
	}
	balance := func(stars int) *model.StarsLedger {
		return &model.StarsLedger{UserID: userID, StarsRemaining: stars}
	}

	tests := []struct {
		name             string
		mockSetup        func(m *mocks.MockRepository)
		expectedPaidWith model.SpinPayment
		expectedError    error
		settleAttempted  bool
	}{
		{
			name: "Not eligible writes nothing",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("GetProfile", mock.Anything, userID).Return(&model.Profile{ID: userID}, nil)
				m.On("GetUserSpins", mock.Anything, userID).Return(spins(0), nil)
				m.On("GetBalance", mock.Anything, userID).Return(balance(SpinCost-1), nil)
			},
			expectedError: ErrSpinNotAvailable,
		},
		{
			name: "Free spin is used first",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("GetProfile", mock.Anything, userID).Return(&model.Profile{ID: userID}, nil)
				m.On("GetUserSpins", mock.Anything, userID).Return(spins(2), nil).Once()
				m.On("GetBalance", mock.Anything, userID).Return(balance(50), nil)
				m.On("ApplySpinReward", mock.Anything, userID, mock.Anything, model.PaidWithFreeSpin, SpinCost).Return(nil)
				m.On("GetUserSpins", mock.Anything, userID).Return(spins(1), nil).Once()
			},
			expectedPaidWith: model.PaidWithFreeSpin,
		},
		{
			name: "Stars pay when free spins are gone",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("GetProfile", mock.Anything, userID).Return(&model.Profile{ID: userID}, nil)
				m.On("GetUserSpins", mock.Anything, userID).Return(spins(0), nil)
				m.On("GetBalance", mock.Anything, userID).Return(balance(SpinCost), nil).Once()
				m.On("ApplySpinReward", mock.Anything, userID, mock.Anything, model.PaidWithStars, SpinCost).Return(nil)
				m.On("GetBalance", mock.Anything, userID).Return(balance(0), nil).Once()
			},
			expectedPaidWith: model.PaidWithStars,
		},
		{
			name: "Lost race on the ledger",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("GetProfile", mock.Anything, userID).Return(&model.Profile{ID: userID}, nil)
				m.On("GetUserSpins", mock.Anything, userID).Return(spins(0), nil)
				m.On("GetBalance", mock.Anything, userID).Return(balance(SpinCost), nil)
				m.On("ApplySpinReward", mock.Anything, userID, mock.Anything, model.PaidWithStars, SpinCost).
					Return(repository.ErrInsufficientStars)
			},
			expectedError: ErrInsufficientStars,
		},
		{
			name: "Lost race on the last free spin falls back to stars",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("GetProfile", mock.Anything, userID).Return(&model.Profile{ID: userID}, nil)
				m.On("GetUserSpins", mock.Anything, userID).Return(spins(1), nil).Once()
				m.On("GetBalance", mock.Anything, userID).Return(balance(100), nil).Twice()
				m.On("ApplySpinReward", mock.Anything, userID, mock.Anything, model.PaidWithFreeSpin, SpinCost).
					Return(repository.ErrNoFreeSpins).Once()
				m.On("ApplySpinReward", mock.Anything, userID, mock.Anything, model.PaidWithStars, SpinCost).
					Return(nil).Once()
				m.On("GetBalance", mock.Anything, userID).Return(balance(100-SpinCost), nil).Once()
				m.On("GetUserSpins", mock.Anything, userID).Return(spins(0), nil).Once()
			},
			expectedPaidWith: model.PaidWithStars,
		},
		{
			name: "Lost race on the last free spin without stars",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("GetProfile", mock.Anything, userID).Return(&model.Profile{ID: userID}, nil)
				m.On("GetUserSpins", mock.Anything, userID).Return(spins(1), nil)
				m.On("GetBalance", mock.Anything, userID).Return(balance(SpinCost-1), nil)
				m.On("ApplySpinReward", mock.Anything, userID, mock.Anything, model.PaidWithFreeSpin, SpinCost).
					Return(repository.ErrNoFreeSpins).Once()
			},
			settleAttempted: true,
			expectedError:   ErrSpinNotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockRepository{}
			tt.mockSetup(mockRepo)
			service := newTestRewardService(mockRepo)

			result, err := service.Spin(context.Background(), userID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
				if tt.expectedError == ErrSpinNotAvailable && !tt.settleAttempted {
					mockRepo.AssertNotCalled(t, "ApplySpinReward", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedPaidWith, result.PaidWith)
			assert.NotEmpty(t, result.Reward.Key)
			assert.Equal(t, fixedNow.Add(RevealDelay), result.RevealAt)
			assert.Equal(t, StandardDailySpins, result.Spins.DailyAllotment)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestRewardService_DrawDistribution(t *testing.T) {
	service := newTestRewardService(&mocks.MockRepository{})

	const draws = 200000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		counts[service.Draw().Key]++
	}

	total := 0
	for _, r := range SpinRewards {
		total += r.Weight
	}
	assert.Equal(t, 96, total)

	for _, r := range SpinRewards {
		expected := float64(r.Weight) / float64(total)
		got := float64(counts[r.Key]) / draws
		assert.InDelta(t, expected, got, 0.01, "reward %s", r.Key)
	}

	tryAgain := float64(counts["try_again"]) / draws
	assert.True(t, math.Abs(tryAgain-0.365) < 0.01)
}

func TestRewardService_CompleteChallenge(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name             string
		badgeID          string
		mockSetup        func(m *mocks.MockRepository)
		expectedCredited bool
		expectedError    error
	}{
		{
			name:          "Unknown badge",
			badgeID:       "climb_everest",
			mockSetup:     func(m *mocks.MockRepository) {},
			expectedError: ErrNotFound,
		},
		{
			name:    "First completion credits stars",
			badgeID: "first_offer",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("CompleteChallenge", mock.Anything, userID, "first_offer", 10).Return(true, nil)
			},
			expectedCredited: true,
		},
		{
			name:    "Repeat completion credits nothing",
			badgeID: "first_spin",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("CompleteChallenge", mock.Anything, userID, "first_spin", 5).Return(false, nil)
			},
			expectedCredited: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockRepository{}
			tt.mockSetup(mockRepo)
			service := newTestRewardService(mockRepo)

			credited, err := service.CompleteChallenge(context.Background(), userID, tt.badgeID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCredited, credited)
		})
	}
}

func TestRewardService_Redeem(t *testing.T) {
	userID := uuid.New()
	ownerID := uuid.New()
	offerID := uuid.New()

	t.Run("Own offer is refused", func(t *testing.T) {
		mockRepo := &mocks.MockRepository{}
		mockRepo.On("GetOffer", mock.Anything, offerID).Return(&model.Offer{ID: offerID, UserID: userID, StarsPrice: 10}, nil)

		_, err := newTestRewardService(mockRepo).Redeem(context.Background(), userID, offerID)
		assert.ErrorIs(t, err, ErrForbidden)
		mockRepo.AssertNotCalled(t, "SpendStars", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Not enough stars", func(t *testing.T) {
		mockRepo := &mocks.MockRepository{}
		mockRepo.On("GetOffer", mock.Anything, offerID).Return(&model.Offer{ID: offerID, UserID: ownerID, StarsPrice: 10}, nil)
		mockRepo.On("SpendStars", mock.Anything, userID, 10).Return(repository.ErrInsufficientStars)

		_, err := newTestRewardService(mockRepo).Redeem(context.Background(), userID, offerID)
		assert.ErrorIs(t, err, ErrInsufficientStars)
	})

	t.Run("Paid", func(t *testing.T) {
		mockRepo := &mocks.MockRepository{}
		mockRepo.On("GetOffer", mock.Anything, offerID).Return(&model.Offer{ID: offerID, UserID: ownerID, StarsPrice: 10}, nil)
		mockRepo.On("SpendStars", mock.Anything, userID, 10).Return(nil)
		mockRepo.On("GetBalance", mock.Anything, userID).Return(&model.StarsLedger{UserID: userID, StarsRemaining: 15}, nil)

		balance, err := newTestRewardService(mockRepo).Redeem(context.Background(), userID, offerID)
		require.NoError(t, err)
		assert.Equal(t, 15, balance.StarsRemaining)
	})
}

func TestRewardService_GrantPerks(t *testing.T) {
	userID := uuid.New()

	t.Run("Zero perks are rejected", func(t *testing.T) {
		err := newTestRewardService(&mocks.MockRepository{}).GrantPerks(context.Background(), userID, model.Perks{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Stars only skip the spin record", func(t *testing.T) {
		mockRepo := &mocks.MockRepository{}
		perks := model.Perks{Stars: 25}
		mockRepo.On("GrantPerks", mock.Anything, userID, perks).Return(nil)

		require.NoError(t, newTestRewardService(mockRepo).GrantPerks(context.Background(), userID, perks))
		mockRepo.AssertNotCalled(t, "GetUserSpins", mock.Anything, mock.Anything)
	})
}

func TestRewardService_Leaderboard(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "Default", limit: 0, wantLimit: maxLeaderboardSize},
		{name: "Within range", limit: 10, wantLimit: 10},
		{name: "Clamped", limit: 1000, wantLimit: maxLeaderboardSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockRepository{}
			entries := []*model.LeaderboardEntry{{UserID: uuid.New()}}
			mockRepo.On("GetTopUsers", mock.Anything, tt.wantLimit).Return(entries, nil)

			got, err := newTestRewardService(mockRepo).Leaderboard(context.Background(), tt.limit)
			require.NoError(t, err)
			assert.Equal(t, entries, got)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestRewardService_FulfillVoucher(t *testing.T) {
	id := uuid.New()

	mockRepo := &mocks.MockRepository{}
	mockRepo.On("FulfillVoucher", mock.Anything, id).Return(repository.ErrNotFound).Once()
	mockRepo.On("FulfillVoucher", mock.Anything, id).Return(nil).Once()

	svc := newTestRewardService(mockRepo)
	assert.ErrorIs(t, svc.FulfillVoucher(context.Background(), id), ErrNotFound)
	assert.NoError(t, svc.FulfillVoucher(context.Background(), id))
}
