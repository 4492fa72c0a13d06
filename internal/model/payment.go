package model

import "github.com/google/uuid"

type CheckoutKind string

const (
	CheckoutStars   CheckoutKind = "stars"
	CheckoutPremium CheckoutKind = "premium"
)

type CheckoutRequest struct {
	Kind    CheckoutKind
	UserID  uuid.UUID
	Email   string
	PriceID string
	Bundle  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutCompleted is the provider-neutral content of a completed checkout
// webhook event.
type CheckoutCompleted struct {
	EventID   string
	SessionID string
	Email     string
	Metadata  map[string]string
}
