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

const maxGroupNameLength = 80

type GroupService struct {
	repo GroupRepository
}

func NewGroupService(repo GroupRepository) *GroupService {
	return &GroupService{repo: repo}
}

func (s *GroupService) Create(ctx context.Context, ownerID uuid.UUID, name string) (*model.GroupChat, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxGroupNameLength {
		return nil, fmt.Errorf("%w: group name must be 1-%d characters", ErrInvalidInput, maxGroupNameLength)
	}

	group := &model.GroupChat{
		ID:        uuid.New(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return group, nil
}

// AddMember adds userID to a group owned by ownerID.
func (s *GroupService) AddMember(ctx context.Context, ownerID, groupID, userID uuid.UUID) error {
	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get group: %w", err)
	}
	if group.OwnerID != ownerID {
		return fmt.Errorf("%w: only the owner can add members", ErrForbidden)
	}

	if _, err := s.repo.GetProfile(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get profile: %w", err)
	}

	if err := s.repo.AddGroupMember(ctx, groupID, userID); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (s *GroupService) Mine(ctx context.Context, userID uuid.UUID) ([]*model.GroupChat, error) {
	return s.repo.ListUserGroups(ctx, userID)
}

func (s *GroupService) Members(ctx context.Context, userID, groupID uuid.UUID) ([]*model.GroupMember, error) {
	member, err := s.repo.IsGroupMember(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, ErrNotParticipant
	}
	return s.repo.ListGroupMembers(ctx, groupID)
}
