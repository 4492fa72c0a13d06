package mocks

import (
	"context"
	"time"

	"glimo/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRepository implements every repository interface of the service
// package.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateProfile(ctx context.Context, profile *model.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockRepository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update *model.ProfileUpdate) (*model.Profile, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockRepository) SetAvatarURL(ctx context.Context, id uuid.UUID, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

func (m *MockRepository) SetRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockRepository) SetPremium(ctx context.Context, id uuid.UUID, premium bool) error {
	args := m.Called(ctx, id, premium)
	return args.Error(0)
}

func (m *MockRepository) ListProfiles(ctx context.Context, limit, offset int) ([]*model.Profile, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Profile), args.Error(1)
}

func (m *MockRepository) SubscribeNewsletter(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockRepository) GetUserSpins(ctx context.Context, userID uuid.UUID) (*model.SpinStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SpinStatus), args.Error(1)
}

func (m *MockRepository) CreateUserSpins(ctx context.Context, status *model.SpinStatus) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

func (m *MockRepository) ResetDailySpins(ctx context.Context, userID uuid.UUID, today time.Time, allotment int) error {
	args := m.Called(ctx, userID, today, allotment)
	return args.Error(0)
}

func (m *MockRepository) GetBalance(ctx context.Context, userID uuid.UUID) (*model.StarsLedger, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StarsLedger), args.Error(1)
}

func (m *MockRepository) ApplySpinReward(ctx context.Context, userID uuid.UUID, reward model.SpinReward, paidWith model.SpinPayment, starsCost int) error {
	args := m.Called(ctx, userID, reward, paidWith, starsCost)
	return args.Error(0)
}

func (m *MockRepository) SpendStars(ctx context.Context, userID uuid.UUID, amount int) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockRepository) CompleteChallenge(ctx context.Context, userID uuid.UUID, badgeID string, stars int) (bool, error) {
	args := m.Called(ctx, userID, badgeID, stars)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GrantPerks(ctx context.Context, userID uuid.UUID, perks model.Perks) error {
	args := m.Called(ctx, userID, perks)
	return args.Error(0)
}

func (m *MockRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LeaderboardEntry), args.Error(1)
}

func (m *MockRepository) ListVouchers(ctx context.Context, userID uuid.UUID) ([]*model.RewardVoucher, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.RewardVoucher), args.Error(1)
}

func (m *MockRepository) FulfillVoucher(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) ListConversationSummaries(ctx context.Context, userID uuid.UUID, limit int, before *model.ConversationCursor) ([]*model.ConversationSummary, error) {
	args := m.Called(ctx, userID, limit, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ConversationSummary), args.Error(1)
}

func (m *MockRepository) ListPrivateMessages(ctx context.Context, userID uuid.UUID) ([]*model.Message, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Message), args.Error(1)
}

func (m *MockRepository) UpsertConversationSummaries(ctx context.Context, summaries []*model.ConversationSummary) error {
	args := m.Called(ctx, summaries)
	return args.Error(0)
}

func (m *MockRepository) IsGroupMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) InsertMessage(ctx context.Context, msg *model.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockRepository) GetConversationMessages(ctx context.Context, a, b uuid.UUID, limit int, beforeID int64) ([]*model.Message, error) {
	args := m.Called(ctx, a, b, limit, beforeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Message), args.Error(1)
}

func (m *MockRepository) GetGroupMessages(ctx context.Context, groupID uuid.UUID, limit int, beforeID int64) ([]*model.Message, error) {
	args := m.Called(ctx, groupID, limit, beforeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Message), args.Error(1)
}

func (m *MockRepository) GetMessage(ctx context.Context, id int64) (*model.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockRepository) ToggleMessageFlag(ctx context.Context, id int64, flag model.MessageFlag) (*model.Message, error) {
	args := m.Called(ctx, id, flag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockRepository) ToggleReaction(ctx context.Context, id int64, emoji string, userID uuid.UUID) (*model.Message, error) {
	args := m.Called(ctx, id, emoji, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockRepository) CreditPurchasedStars(ctx context.Context, eventID, eventType, email string, stars int) (*model.Profile, error) {
	args := m.Called(ctx, eventID, eventType, email, stars)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockRepository) ActivatePremium(ctx context.Context, eventID, eventType, email string) (*model.Profile, error) {
	args := m.Called(ctx, eventID, eventType, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockRepository) UpsertPartnershipRequest(ctx context.Context, senderID, receiverID uuid.UUID) (*model.PartnershipRequest, bool, error) {
	args := m.Called(ctx, senderID, receiverID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.PartnershipRequest), args.Bool(1), args.Error(2)
}

func (m *MockRepository) RespondPartnershipRequest(ctx context.Context, senderID, receiverID uuid.UUID, status model.PartnershipStatus) (*model.PartnershipRequest, error) {
	args := m.Called(ctx, senderID, receiverID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PartnershipRequest), args.Error(1)
}

func (m *MockRepository) ListPartnershipRequests(ctx context.Context, userID uuid.UUID, incoming bool) ([]*model.PartnershipRequest, error) {
	args := m.Called(ctx, userID, incoming)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PartnershipRequest), args.Error(1)
}

func (m *MockRepository) CreateGroup(ctx context.Context, group *model.GroupChat) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockRepository) AddGroupMember(ctx context.Context, groupID, userID uuid.UUID) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *MockRepository) GetGroup(ctx context.Context, groupID uuid.UUID) (*model.GroupChat, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GroupChat), args.Error(1)
}

func (m *MockRepository) ListUserGroups(ctx context.Context, userID uuid.UUID) ([]*model.GroupChat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.GroupChat), args.Error(1)
}

func (m *MockRepository) ListGroupMembers(ctx context.Context, groupID uuid.UUID) ([]*model.GroupMember, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.GroupMember), args.Error(1)
}

func (m *MockRepository) CreateOffer(ctx context.Context, offer *model.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *MockRepository) GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockRepository) ListOffers(ctx context.Context, filter *model.OfferFilter) ([]*model.Offer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Offer), args.Error(1)
}

func (m *MockRepository) DeleteOffer(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockRepository) ListCatalogItems(ctx context.Context, kind model.CatalogKind, category string, includePremium bool) ([]*model.CatalogItem, error) {
	args := m.Called(ctx, kind, category, includePremium)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CatalogItem), args.Error(1)
}

func (m *MockRepository) CreateCatalogItem(ctx context.Context, item *model.CatalogItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
