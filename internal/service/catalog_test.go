package service

import (
	"context"
	"testing"

	"glimo/internal/model"
	"glimo/internal/repository"
	"glimo/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"marketing", "seo"}, normalizeTags([]string{" Marketing", "seo", "", "SEO "}))
}

func TestCatalogService_CreateOffer(t *testing.T) {
	userID := uuid.New()
	mockRepo := &mocks.MockRepository{}
	mockRepo.On("CreateOffer", mock.Anything, mock.AnythingOfType("*model.Offer")).Return(nil)
	service := NewCatalogService(mockRepo)

	_, err := service.CreateOffer(context.Background(), userID, &model.Offer{Title: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.CreateOffer(context.Background(), userID, &model.Offer{Title: "Logo design", StarsPrice: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	offer, err := service.CreateOffer(context.Background(), userID, &model.Offer{Title: " Logo design ", StarsPrice: 30, Tags: []string{"Design"}})
	require.NoError(t, err)
	assert.Equal(t, userID, offer.UserID)
	assert.Equal(t, "Logo design", offer.Title)
	assert.Equal(t, []string{"design"}, offer.Tags)
	assert.NotEqual(t, uuid.Nil, offer.ID)
}

func TestCatalogService_ListItems(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name           string
		kind           model.CatalogKind
		profile        *model.Profile
		includePremium bool
	}{
		{"Standard user", model.CatalogTools, &model.Profile{ID: userID}, false},
		{"Premium user", model.CatalogTools, &model.Profile{ID: userID, IsPremium: true}, true},
		{"Unlocked premium book", model.CatalogEbooks, &model.Profile{ID: userID, PremiumBookUnlocked: true}, true},
		{"Unlocked book does not open tools", model.CatalogTools, &model.Profile{ID: userID, PremiumBookUnlocked: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockRepository{}
			mockRepo.On("GetProfile", mock.Anything, userID).Return(tt.profile, nil)
			mockRepo.On("ListCatalogItems", mock.Anything, tt.kind, "", tt.includePremium).Return([]*model.CatalogItem{}, nil)

			_, err := NewCatalogService(mockRepo).ListItems(context.Background(), userID, tt.kind, "")
			require.NoError(t, err)
			mockRepo.AssertExpectations(t)
		})
	}

	_, err := NewCatalogService(&mocks.MockRepository{}).ListItems(context.Background(), userID, "recipes", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_DeleteOffer(t *testing.T) {
	userID, offerID := uuid.New(), uuid.New()
	mockRepo := &mocks.MockRepository{}
	mockRepo.On("DeleteOffer", mock.Anything, offerID, userID).Return(repository.ErrNotFound)

	err := NewCatalogService(mockRepo).DeleteOffer(context.Background(), userID, offerID)
	assert.ErrorIs(t, err, ErrNotFound)
}
