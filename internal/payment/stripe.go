package payment

import (
	"context"
	"errors"
	"fmt"

	"glimo/internal/model"

	"github.com/goccy/go-json"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const EventCheckoutCompleted = "checkout.session.completed"

var ErrInvalidSignature = errors.New("invalid webhook signature")

type Config struct {
	SecretKey     string `yaml:"secretKey"`
	WebhookSecret string `yaml:"webhookSecret"`
	SuccessURL    string `yaml:"successURL"`
	CancelURL     string `yaml:"cancelURL"`
}

type StripeProvider struct {
	api *client.API
	cfg Config
}

func NewStripeProvider(cfg Config) *StripeProvider {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)

	return &StripeProvider{
		api: sc,
		cfg: cfg,
	}
}

// CreateCheckoutSession opens a hosted checkout for one unit of req.PriceID.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutSession, error) {
	mode := stripe.CheckoutSessionModePayment
	if req.Kind == model.CheckoutPremium {
		mode = stripe.CheckoutSessionModeSubscription
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(p.cfg.SuccessURL),
		CancelURL:         stripe.String(p.cfg.CancelURL),
		CustomerEmail:     stripe.String(req.Email),
		ClientReferenceID: stripe.String(req.UserID.String()),
	}
	params.Context = ctx
	params.AddMetadata("kind", string(req.Kind))
	if req.Bundle != "" {
		params.AddMetadata("bundle", req.Bundle)
	}

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &model.CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

// ParseWebhook verifies the signature of a webhook delivery. It returns nil
// without error for event types other than a completed checkout.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*model.CheckoutCompleted, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if event.Type != EventCheckoutCompleted {
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	email := session.CustomerEmail
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		email = session.CustomerDetails.Email
	}

	return &model.CheckoutCompleted{
		EventID:   event.ID,
		SessionID: session.ID,
		Email:     email,
		Metadata:  session.Metadata,
	}, nil
}
