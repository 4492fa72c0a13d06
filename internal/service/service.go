package service

import (
	"context"
	"errors"
	"time"

	"glimo/internal/model"
	"glimo/internal/realtime"
	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrSpinNotAvailable  = errors.New("no free spins left and not enough stars to spin")
	ErrInsufficientStars = errors.New("not enough stars")
	ErrNotParticipant    = errors.New("not a participant of this conversation")
	ErrInvalidMessage    = errors.New("message needs content or an attachment")
	ErrUnknownBundle     = errors.New("unknown stars bundle")
	ErrInvalidSignature  = errors.New("invalid payment signature")
	ErrAlreadyExists     = errors.New("already exists")
)

type ProfileServiceI interface {
	Me(ctx context.Context, userID uuid.UUID, email string) (*model.Profile, error)
	Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, update *model.ProfileUpdate) (*model.Profile, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, file *Upload) (*model.Profile, error)
	List(ctx context.Context, limit, offset int) ([]*model.Profile, error)
	SetRole(ctx context.Context, userID uuid.UUID, role model.Role) error
	SetPremium(ctx context.Context, userID uuid.UUID, premium bool) error
	SubscribeNewsletter(ctx context.Context, email string) error
}

type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update *model.ProfileUpdate) (*model.Profile, error)
	SetAvatarURL(ctx context.Context, id uuid.UUID, url string) error
	SetRole(ctx context.Context, id uuid.UUID, role model.Role) error
	SetPremium(ctx context.Context, id uuid.UUID, premium bool) error
	ListProfiles(ctx context.Context, limit, offset int) ([]*model.Profile, error)
	SubscribeNewsletter(ctx context.Context, email string) error
}

type RewardServiceI interface {
	SpinStatus(ctx context.Context, userID uuid.UUID) (*model.SpinStatus, error)
	Spin(ctx context.Context, userID uuid.UUID) (*model.SpinResult, error)
	Balance(ctx context.Context, userID uuid.UUID) (*model.StarsLedger, error)
	Redeem(ctx context.Context, userID, offerID uuid.UUID) (*model.StarsLedger, error)
	CompleteChallenge(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error)
	GrantPerks(ctx context.Context, userID uuid.UUID, perks model.Perks) error
	Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
	Vouchers(ctx context.Context, userID uuid.UUID) ([]*model.RewardVoucher, error)
	FulfillVoucher(ctx context.Context, id uuid.UUID) error
	Rewards() []model.SpinReward
}

type RewardRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	GetUserSpins(ctx context.Context, userID uuid.UUID) (*model.SpinStatus, error)
	CreateUserSpins(ctx context.Context, status *model.SpinStatus) error
	ResetDailySpins(ctx context.Context, userID uuid.UUID, today time.Time, allotment int) error
	GetBalance(ctx context.Context, userID uuid.UUID) (*model.StarsLedger, error)
	ApplySpinReward(ctx context.Context, userID uuid.UUID, reward model.SpinReward, paidWith model.SpinPayment, starsCost int) error
	SpendStars(ctx context.Context, userID uuid.UUID, amount int) error
	GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	CompleteChallenge(ctx context.Context, userID uuid.UUID, badgeID string, stars int) (bool, error)
	GrantPerks(ctx context.Context, userID uuid.UUID, perks model.Perks) error
	GetTopUsers(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
	ListVouchers(ctx context.Context, userID uuid.UUID) ([]*model.RewardVoucher, error)
	FulfillVoucher(ctx context.Context, id uuid.UUID) error
}

type ConversationServiceI interface {
	List(ctx context.Context, userID uuid.UUID, limit int, before *model.ConversationCursor) ([]*model.ConversationSummary, error)
	Rebuild(ctx context.Context, userID uuid.UUID) (int, error)
}

type ConversationRepository interface {
	ListConversationSummaries(ctx context.Context, userID uuid.UUID, limit int, before *model.ConversationCursor) ([]*model.ConversationSummary, error)
	ListPrivateMessages(ctx context.Context, userID uuid.UUID) ([]*model.Message, error)
	UpsertConversationSummaries(ctx context.Context, summaries []*model.ConversationSummary) error
}

type MessageServiceI interface {
	History(ctx context.Context, userID, peerID uuid.UUID, limit int, beforeID int64) ([]*model.Message, error)
	GroupHistory(ctx context.Context, userID, groupID uuid.UUID, limit int, beforeID int64) ([]*model.Message, error)
	Send(ctx context.Context, userID, peerID uuid.UUID, content, fileURL string) (*model.Message, error)
	SendGroup(ctx context.Context, userID, groupID uuid.UUID, content, fileURL string) (*model.Message, error)
	TogglePin(ctx context.Context, userID uuid.UUID, messageID int64) (*model.Message, error)
	ToggleStar(ctx context.Context, userID uuid.UUID, messageID int64) (*model.Message, error)
	React(ctx context.Context, userID uuid.UUID, messageID int64, emoji string) (*model.Message, error)
	UploadAttachment(ctx context.Context, userID uuid.UUID, file *Upload) (string, error)
}

type MessageRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	IsGroupMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	InsertMessage(ctx context.Context, msg *model.Message) error
	GetConversationMessages(ctx context.Context, a, b uuid.UUID, limit int, beforeID int64) ([]*model.Message, error)
	GetGroupMessages(ctx context.Context, groupID uuid.UUID, limit int, beforeID int64) ([]*model.Message, error)
	GetMessage(ctx context.Context, id int64) (*model.Message, error)
	ToggleMessageFlag(ctx context.Context, id int64, flag model.MessageFlag) (*model.Message, error)
	ToggleReaction(ctx context.Context, id int64, emoji string, userID uuid.UUID) (*model.Message, error)
}

type TypingServiceI interface {
	Announce(ctx context.Context, userID uuid.UUID, scope string) (bool, error)
	Active(ctx context.Context, userID uuid.UUID, scope string) ([]*model.TypingEvent, error)
}

// TypingStore keeps short-lived typing presence.
type TypingStore interface {
	Throttle(ctx context.Context, scope string, userID uuid.UUID) (bool, error)
	Release(ctx context.Context, scope string, userID uuid.UUID) error
	Put(ctx context.Context, event *model.TypingEvent) error
	Active(ctx context.Context, scope string) ([]*model.TypingEvent, error)
}

type MembershipRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	IsGroupMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
}

type PaymentServiceI interface {
	CheckoutStars(ctx context.Context, userID uuid.UUID, email, bundle string) (*model.CheckoutSession, error)
	CheckoutPremium(ctx context.Context, userID uuid.UUID, email string) (*model.CheckoutSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// PaymentProvider is a hosted checkout provider.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*model.CheckoutCompleted, error)
}

type PaymentRepository interface {
	CreditPurchasedStars(ctx context.Context, eventID, eventType, email string, stars int) (*model.Profile, error)
	ActivatePremium(ctx context.Context, eventID, eventType, email string) (*model.Profile, error)
}

type PartnershipServiceI interface {
	Request(ctx context.Context, senderID, receiverID uuid.UUID) (*model.PartnershipRequest, error)
	Respond(ctx context.Context, receiverID, senderID uuid.UUID, accept bool) (*model.PartnershipRequest, error)
	Incoming(ctx context.Context, userID uuid.UUID) ([]*model.PartnershipRequest, error)
	Outgoing(ctx context.Context, userID uuid.UUID) ([]*model.PartnershipRequest, error)
}

type PartnershipRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	UpsertPartnershipRequest(ctx context.Context, senderID, receiverID uuid.UUID) (*model.PartnershipRequest, bool, error)
	RespondPartnershipRequest(ctx context.Context, senderID, receiverID uuid.UUID, status model.PartnershipStatus) (*model.PartnershipRequest, error)
	ListPartnershipRequests(ctx context.Context, userID uuid.UUID, incoming bool) ([]*model.PartnershipRequest, error)
}

type GroupServiceI interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string) (*model.GroupChat, error)
	AddMember(ctx context.Context, ownerID, groupID, userID uuid.UUID) error
	Mine(ctx context.Context, userID uuid.UUID) ([]*model.GroupChat, error)
	Members(ctx context.Context, userID, groupID uuid.UUID) ([]*model.GroupMember, error)
}

type GroupRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	CreateGroup(ctx context.Context, group *model.GroupChat) error
	AddGroupMember(ctx context.Context, groupID, userID uuid.UUID) error
	GetGroup(ctx context.Context, groupID uuid.UUID) (*model.GroupChat, error)
	IsGroupMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	ListUserGroups(ctx context.Context, userID uuid.UUID) ([]*model.GroupChat, error)
	ListGroupMembers(ctx context.Context, groupID uuid.UUID) ([]*model.GroupMember, error)
}

type CatalogServiceI interface {
	CreateOffer(ctx context.Context, userID uuid.UUID, offer *model.Offer) (*model.Offer, error)
	GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	ListOffers(ctx context.Context, filter *model.OfferFilter) ([]*model.Offer, error)
	DeleteOffer(ctx context.Context, userID, id uuid.UUID) error
	ListItems(ctx context.Context, userID uuid.UUID, kind model.CatalogKind, category string) ([]*model.CatalogItem, error)
	CreateItem(ctx context.Context, item *model.CatalogItem) (*model.CatalogItem, error)
}

type CatalogRepository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	CreateOffer(ctx context.Context, offer *model.Offer) error
	GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	ListOffers(ctx context.Context, filter *model.OfferFilter) ([]*model.Offer, error)
	DeleteOffer(ctx context.Context, id, userID uuid.UUID) error
	ListCatalogItems(ctx context.Context, kind model.CatalogKind, category string, includePremium bool) ([]*model.CatalogItem, error)
	CreateCatalogItem(ctx context.Context, item *model.CatalogItem) error
}

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Mime     string
	Data     []byte
}

// publish hands a change to the realtime layer. Failures are logged only:
// the write that produced the change has already been committed.
func publish(ctx context.Context, publisher realtime.Publisher, change *realtime.Change, err error) {
	log := logger.Logger()
	if err != nil {
		log.Error("failed to build realtime change", zap.Error(err))
		return
	}
	if err := publisher.Publish(ctx, change); err != nil {
		log.Error("failed to publish realtime change",
			zap.Error(err),
			zap.String("table", change.Table),
			zap.String("event", string(change.Event)))
	}
}
