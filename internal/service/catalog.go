package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"glimo/internal/model"
	"glimo/internal/repository"

	"github.com/google/uuid"
)

const (
	defaultOfferPage = 20
	maxOfferPage     = 100
	maxTags          = 10
)

type CatalogService struct {
	repo CatalogRepository
}

func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func (s *CatalogService) CreateOffer(ctx context.Context, userID uuid.UUID, offer *model.Offer) (*model.Offer, error) {
	offer.Title = strings.TrimSpace(offer.Title)
	if offer.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if offer.StarsPrice < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	offer.Tags = normalizeTags(offer.Tags)
	if len(offer.Tags) > maxTags {
		return nil, fmt.Errorf("%w: at most %d tags", ErrInvalidInput, maxTags)
	}

	offer.ID = uuid.New()
	offer.UserID = userID
	offer.CreatedAt = time.Now().UTC()

	if err := s.repo.CreateOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	return offer, nil
}

func (s *CatalogService) GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	offer, err := s.repo.GetOffer(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

func (s *CatalogService) ListOffers(ctx context.Context, filter *model.OfferFilter) ([]*model.Offer, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultOfferPage
	}
	if filter.Limit > maxOfferPage {
		filter.Limit = maxOfferPage
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))

	return s.repo.ListOffers(ctx, filter)
}

func (s *CatalogService) DeleteOffer(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.DeleteOffer(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	return nil
}

// ListItems lists catalog content. Premium items are visible to premium
// members, and premium ebooks also to holders of the premium book perk.
func (s *CatalogService) ListItems(ctx context.Context, userID uuid.UUID, kind model.CatalogKind, category string) ([]*model.CatalogItem, error) {
	if !kind.Valid() {
		return nil, ErrNotFound
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	includePremium := profile.IsPremium || (kind == model.CatalogEbooks && profile.PremiumBookUnlocked)

	items, err := s.repo.ListCatalogItems(ctx, kind, category, includePremium)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	return items, nil
}

func (s *CatalogService) CreateItem(ctx context.Context, item *model.CatalogItem) (*model.CatalogItem, error) {
	if !item.Kind.Valid() {
		return nil, ErrNotFound
	}
	item.Title = strings.TrimSpace(item.Title)
	if item.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	item.Tags = normalizeTags(item.Tags)
	item.ID = uuid.New()
	item.CreatedAt = time.Now().UTC()

	if err := s.repo.CreateCatalogItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create catalog item: %w", err)
	}
	return item, nil
}
