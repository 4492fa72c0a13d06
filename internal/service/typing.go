package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"glimo/internal/model"
	"glimo/internal/realtime"
	"glimo/internal/repository"
	"glimo/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TypingService struct {
	repo      MembershipRepository
	store     TypingStore
	publisher realtime.Publisher
	now       func() time.Time
}

func NewTypingService(repo MembershipRepository, store TypingStore, publisher realtime.Publisher) *TypingService {
	return &TypingService{
		repo:      repo,
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// CanAccessScope reports whether userID takes part in a typing scope: a
// private chat key containing the user, or a group the user belongs to.
func CanAccessScope(ctx context.Context, repo MembershipRepository, userID uuid.UUID, scope string) error {
	if a, b, ok := model.ParseChatKey(scope); ok {
		if model.ChatKey(a, b) != scope || (a != userID && b != userID) {
			return ErrNotParticipant
		}
		return nil
	}

	groupID, err := uuid.Parse(scope)
	if err != nil {
		return fmt.Errorf("%w: unknown chat scope", ErrInvalidInput)
	}

	member, err := repo.IsGroupMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return ErrNotParticipant
	}
	return nil
}

// Announce signals that the user is typing in scope. Calls inside the
// throttle window are accepted but emit nothing; emitted reports which.
func (s *TypingService) Announce(ctx context.Context, userID uuid.UUID, scope string) (bool, error) {
	if err := CanAccessScope(ctx, s.repo, userID, scope); err != nil {
		return false, err
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to get profile: %w", err)
	}

	allowed, err := s.store.Throttle(ctx, scope, userID)
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, nil
	}

	event := &model.TypingEvent{
		Scope:  scope,
		UserID: userID,
		Name:   profile.Name,
		At:     s.now().UTC(),
	}
	if err := s.store.Put(ctx, event); err != nil {
		if rerr := s.store.Release(ctx, scope, userID); rerr != nil {
			logger.Logger().Warn("failed to release typing throttle",
				zap.String("scope", scope), zap.Error(rerr))
		}
		return false, err
	}

	change, err := realtime.NewChange(realtime.TableTypingEvents, realtime.EventInsert, event, map[string]string{
		"chat_id": scope,
		"user_id": userID.String(),
	})
	if change != nil {
		change.Excluding(userID)
	}
	publish(ctx, s.publisher, change, err)

	return true, nil
}

// Active lists the other users currently typing in scope.
func (s *TypingService) Active(ctx context.Context, userID uuid.UUID, scope string) ([]*model.TypingEvent, error) {
	if err := CanAccessScope(ctx, s.repo, userID, scope); err != nil {
		return nil, err
	}

	events, err := s.store.Active(ctx, scope)
	if err != nil {
		return nil, err
	}

	out := make([]*model.TypingEvent, 0, len(events))
	for _, e := range events {
		if e.UserID != userID {
			out = append(out, e)
		}
	}
	return out, nil
}
