package service

import (
	"context"
	"testing"

	"glimo/internal/model"
	"glimo/internal/repository"
	"glimo/internal/service/mocks"
	"glimo/pkg/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProfileService_Me(t *testing.T) {
	userID := uuid.New()

	t.Run("Existing profile", func(t *testing.T) {
		mockRepo := &mocks.MockRepository{}
		mockRepo.On("GetProfile", mock.Anything, userID).Return(&model.Profile{ID: userID, Name: "Ada"}, nil)

		profile, err := NewProfileService(mockRepo, &mocks.MockStorage{}).Me(context.Background(), userID, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Ada", profile.Name)
		mockRepo.AssertNotCalled(t, "CreateProfile", mock.Anything, mock.Anything)
	})

	t.Run("First sign-in creates the profile", func(t *testing.T) {
		mockRepo := &mocks.MockRepository{}
		mockRepo.On("GetProfile", mock.Anything, userID).Return(nil, repository.ErrNotFound).Once()
		mockRepo.On("CreateProfile", mock.Anything, mock.MatchedBy(func(p *model.Profile) bool {
			return p.ID == userID && p.Name == "ada.l" && p.Role == model.RoleUser
		})).Return(nil)
		mockRepo.On("GetProfile", mock.Anything, userID).Return(&model.Profile{ID: userID, Name: "ada.l"}, nil).Once()

		profile, err := NewProfileService(mockRepo, &mocks.MockStorage{}).Me(context.Background(), userID, "ada.l@example.com")
		require.NoError(t, err)
		assert.Equal(t, "ada.l", profile.Name)
		mockRepo.AssertExpectations(t)
	})
}

func TestProfileService_Update(t *testing.T) {
	userID := uuid.New()
	blank := "   "
	name := "  Grace  "

	mockRepo := &mocks.MockRepository{}
	mockRepo.On("UpdateProfile", mock.Anything, userID, mock.MatchedBy(func(u *model.ProfileUpdate) bool {
		return u.Name != nil && *u.Name == "Grace"
	})).Return(&model.Profile{ID: userID, Name: "Grace"}, nil)

	service := NewProfileService(mockRepo, &mocks.MockStorage{})

	_, err := service.Update(context.Background(), userID, &model.ProfileUpdate{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)

	profile, err := service.Update(context.Background(), userID, &model.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Grace", profile.Name)
}

func TestProfileService_UploadAvatar(t *testing.T) {
	userID := uuid.New()

	t.Run("Not an image", func(t *testing.T) {
		_, err := NewProfileService(&mocks.MockRepository{}, &mocks.MockStorage{}).
			UploadAvatar(context.Background(), userID, &Upload{Filename: "a.txt", Mime: "text/plain", Data: []byte("x")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Stored under the user's folder", func(t *testing.T) {
		mockRepo := &mocks.MockRepository{}
		mockStore := &mocks.MockStorage{}
		url := "https://cdn.example.com/avatars/" + userID.String() + "/me.png"

		mockStore.On("Upload", mock.Anything, mock.MatchedBy(func(o *storage.UploadObject) bool {
			return o.Bucket == AvatarBucket && o.Key == userID.String()+"/me.png"
		})).Return(&storage.UploadResponse{URL: url}, nil)
		mockRepo.On("SetAvatarURL", mock.Anything, userID, url).Return(nil)
		mockRepo.On("GetProfile", mock.Anything, userID).Return(&model.Profile{ID: userID, AvatarURL: url}, nil)

		profile, err := NewProfileService(mockRepo, mockStore).
			UploadAvatar(context.Background(), userID, &Upload{Filename: "me.png", Mime: "image/png", Data: []byte{0x89}})
		require.NoError(t, err)
		assert.Equal(t, url, profile.AvatarURL)
	})
}

func TestProfileService_SubscribeNewsletter(t *testing.T) {
	mockRepo := &mocks.MockRepository{}
	mockRepo.On("SubscribeNewsletter", mock.Anything, "ada@example.com").Return(nil)
	service := NewProfileService(mockRepo, &mocks.MockStorage{})

	assert.NoError(t, service.SubscribeNewsletter(context.Background(), " Ada@Example.com "))
	assert.ErrorIs(t, service.SubscribeNewsletter(context.Background(), "not-an-email"), ErrInvalidInput)
}

func TestProfileService_SetRole(t *testing.T) {
	userID := uuid.New()
	mockRepo := &mocks.MockRepository{}
	mockRepo.On("SetRole", mock.Anything, userID, model.RoleAdmin).Return(repository.ErrNotFound)
	service := NewProfileService(mockRepo, &mocks.MockStorage{})

	assert.ErrorIs(t, service.SetRole(context.Background(), userID, "superuser"), ErrInvalidInput)
	assert.ErrorIs(t, service.SetRole(context.Background(), userID, model.RoleAdmin), ErrUserNotFound)
}
