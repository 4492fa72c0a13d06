package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"glimo/internal/model"
	"glimo/internal/payment"
	"glimo/internal/repository"
	"glimo/pkg/logger"
	"glimo/pkg/notify"
	"go.uber.org/zap"

	"github.com/google/uuid"
)

type PaymentService struct {
	repo           PaymentRepository
	provider       PaymentProvider
	notifier       notify.Notifier
	bundles        map[string]string
	premiumPriceID string
}

// NewPaymentService wires checkout. bundles maps a stars bundle ("120") to
// its provider price id.
func NewPaymentService(repo PaymentRepository, provider PaymentProvider, notifier notify.Notifier, bundles map[string]string, premiumPriceID string) *PaymentService {
	return &PaymentService{
		repo:           repo,
		provider:       provider,
		notifier:       notifier,
		bundles:        bundles,
		premiumPriceID: premiumPriceID,
	}
}

func bundleStars(bundle string) (int, bool) {
	stars, err := strconv.Atoi(bundle)
	if err != nil || stars <= 0 {
		return 0, false
	}
	return stars, true
}

func (s *PaymentService) CheckoutStars(ctx context.Context, userID uuid.UUID, email, bundle string) (*model.CheckoutSession, error) {
	priceID, ok := s.bundles[bundle]
	if !ok {
		return nil, ErrUnknownBundle
	}
	if _, ok := bundleStars(bundle); !ok {
		return nil, ErrUnknownBundle
	}

	session, err := s.provider.CreateCheckoutSession(ctx, &model.CheckoutRequest{
		Kind:    model.CheckoutStars,
		UserID:  userID,
		Email:   email,
		PriceID: priceID,
		Bundle:  bundle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}
	return session, nil
}

func (s *PaymentService) CheckoutPremium(ctx context.Context, userID uuid.UUID, email string) (*model.CheckoutSession, error) {
	session, err := s.provider.CreateCheckoutSession(ctx, &model.CheckoutRequest{
		Kind:    model.CheckoutPremium,
		UserID:  userID,
		Email:   email,
		PriceID: s.premiumPriceID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}
	return session, nil
}

// HandleWebhook applies a completed checkout once per provider event. Events
// that cannot be applied, such as an unknown email, are logged and
// acknowledged. Only signature and store failures are returned.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	log := logger.Logger()

	completed, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return ErrInvalidSignature
		}
		return fmt.Errorf("failed to parse webhook: %w", err)
	}
	if completed == nil {
		return nil
	}

	fields := []zap.Field{
		zap.String("event_id", completed.EventID),
		zap.String("session_id", completed.SessionID),
		zap.String("email", completed.Email),
	}

	var (
		profile *model.Profile
		summary string
	)
	switch model.CheckoutKind(completed.Metadata["kind"]) {
	case model.CheckoutStars:
		stars, ok := bundleStars(completed.Metadata["bundle"])
		if !ok {
			log.Error("checkout completed with unknown bundle", append(fields, zap.String("bundle", completed.Metadata["bundle"]))...)
			return nil
		}
		profile, err = s.repo.CreditPurchasedStars(ctx, completed.EventID, payment.EventCheckoutCompleted, completed.Email, stars)
		summary = fmt.Sprintf("%d stars purchased by %s", stars, completed.Email)

	case model.CheckoutPremium:
		profile, err = s.repo.ActivatePremium(ctx, completed.EventID, payment.EventCheckoutCompleted, completed.Email)
		summary = fmt.Sprintf("premium activated for %s", completed.Email)

	default:
		log.Warn("checkout completed without a known kind", fields...)
		return nil
	}

	switch {
	case errors.Is(err, repository.ErrAlreadyProcessed):
		log.Info("payment event already processed", fields...)
		return nil
	case errors.Is(err, repository.ErrNotFound):
		log.Error("no profile for paying customer", fields...)
		return nil
	case err != nil:
		return fmt.Errorf("failed to apply payment: %w", err)
	}

	log.Info("payment applied", append(fields, zap.String("user_id", profile.ID.String()))...)

	if err := s.notifier.NotifyAdmins(ctx, summary); err != nil {
		log.Warn("failed to alert admins about payment", zap.Error(err))
	}

	return nil
}
