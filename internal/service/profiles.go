package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"glimo/internal/model"
	"glimo/internal/repository"
	"glimo/pkg/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

const (
	AvatarBucket   = "avatars"
	maxNameLength  = 80
	maxFieldLength = 200
)

type ProfileService struct {
	repo    ProfileRepository
	storage storage.Storage
}

func NewProfileService(repo ProfileRepository, storage storage.Storage) *ProfileService {
	return &ProfileService{
		repo:    repo,
		storage: storage,
	}
}

// Me returns the profile of the session user, creating it on first access.
func (s *ProfileService) Me(ctx context.Context, userID uuid.UUID, email string) (*model.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	now := time.Now().UTC()
	err = s.repo.CreateProfile(ctx, &model.Profile{
		ID:        userID,
		Email:     email,
		Name:      defaultName(email),
		Role:      model.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return s.Get(ctx, userID)
}

func defaultName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, update *model.ProfileUpdate) (*model.Profile, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" || len(name) > maxNameLength {
			return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidInput, maxNameLength)
		}
		update.Name = &name
	}
	for _, field := range []*string{update.Phone, update.Address} {
		if field != nil && len(*field) > maxFieldLength {
			return nil, fmt.Errorf("%w: field too long", ErrInvalidInput)
		}
	}

	profile, err := s.repo.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// UploadAvatar stores the image under avatars/{userId}/{filename} and records
// its public URL on the profile.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uuid.UUID, file *Upload) (*model.Profile, error) {
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if !strings.HasPrefix(file.Mime, "image/") {
		return nil, fmt.Errorf("%w: avatar must be an image", ErrInvalidInput)
	}

	resp, err := s.storage.Upload(ctx, &storage.UploadObject{
		Bucket: AvatarBucket,
		Key:    fmt.Sprintf("%s/%s", userID, path.Base(file.Filename)),
		Data:   file.Data,
		Mime:   file.Mime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.repo.SetAvatarURL(ctx, userID, resp.URL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to save avatar url: %w", err)
	}

	return s.Get(ctx, userID)
}

func (s *ProfileService) List(ctx context.Context, limit, offset int) ([]*model.Profile, error) {
	profiles, err := s.repo.ListProfiles(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

func (s *ProfileService) SetRole(ctx context.Context, userID uuid.UUID, role model.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if err := s.repo.SetRole(ctx, userID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to set role: %w", err)
	}
	return nil
}

func (s *ProfileService) SetPremium(ctx context.Context, userID uuid.UUID, premium bool) error {
	if err := s.repo.SetPremium(ctx, userID, premium); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to set premium: %w", err)
	}
	return nil
}

func (s *ProfileService) SubscribeNewsletter(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if err := s.repo.SubscribeNewsletter(ctx, email); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}
