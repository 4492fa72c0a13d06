package model

import (
	"time"

	"github.com/google/uuid"
)

type Offer struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Description string
	Category    string
	Tags        []string
	StarsPrice  int
	CreatedAt   time.Time
}

type OfferFilter struct {
	Category string
	Tag      string
	UserID   *uuid.UUID
	Limit    int
	Offset   int
}

type CatalogKind string

const (
	CatalogEbooks       CatalogKind = "ebooks"
	CatalogTutorials    CatalogKind = "tutorials"
	CatalogTools        CatalogKind = "tools"
	CatalogServices     CatalogKind = "services"
	CatalogHelpArticles CatalogKind = "help_articles"
	CatalogBlogPosts    CatalogKind = "blog_posts"
)

var CatalogKinds = []CatalogKind{
	CatalogEbooks,
	CatalogTutorials,
	CatalogTools,
	CatalogServices,
	CatalogHelpArticles,
	CatalogBlogPosts,
}

func (k CatalogKind) Valid() bool {
	for _, kind := range CatalogKinds {
		if k == kind {
			return true
		}
	}
	return false
}

type CatalogItem struct {
	ID          uuid.UUID
	Kind        CatalogKind
	Title       string
	Description string
	Category    string
	Tags        []string
	URL         string
	IsPremium   bool
	CreatedAt   time.Time
}

type PartnershipStatus string

const (
	PartnershipPending  PartnershipStatus = "pending"
	PartnershipAccepted PartnershipStatus = "accepted"
	PartnershipRejected PartnershipStatus = "rejected"
)

type PartnershipRequest struct {
	SenderID   uuid.UUID         `json:"sender_id"`
	ReceiverID uuid.UUID         `json:"receiver_id"`
	Status     PartnershipStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
