package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glimo/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TypingTTL      = 3 * time.Second
	TypingThrottle = 2 * time.Second
)

// TypingStore keeps short-lived typing presence per conversation scope.
type TypingStore struct {
	rdb redis.UniversalClient
}

func NewTypingStore(rdb redis.UniversalClient) *TypingStore {
	return &TypingStore{rdb: rdb}
}

func presenceKey(scope string, userID uuid.UUID) string {
	return fmt.Sprintf("typing:%s:%s", scope, userID)
}

func throttleKey(scope string, userID uuid.UUID) string {
	return fmt.Sprintf("typing-throttle:%s:%s", scope, userID)
}

// Throttle reports whether the user may emit a typing event for scope now.
// At most one call per TypingThrottle window returns true.
func (s *TypingStore) Throttle(ctx context.Context, scope string, userID uuid.UUID) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, throttleKey(scope, userID), 1, TypingThrottle).Result()
	if err != nil {
		return false, fmt.Errorf("typing throttle: %w", err)
	}
	return ok, nil
}

// Release frees the throttle slot so the next call may emit again.
func (s *TypingStore) Release(ctx context.Context, scope string, userID uuid.UUID) error {
	if err := s.rdb.Del(ctx, throttleKey(scope, userID)).Err(); err != nil {
		return fmt.Errorf("typing release: %w", err)
	}
	return nil
}

func (s *TypingStore) Put(ctx context.Context, event *model.TypingEvent) error {
	if err := s.rdb.Set(ctx, presenceKey(event.Scope, event.UserID), event.Name, TypingTTL).Err(); err != nil {
		return fmt.Errorf("typing put: %w", err)
	}
	return nil
}

// Active lists users with an unexpired typing key in scope.
func (s *TypingStore) Active(ctx context.Context, scope string) ([]*model.TypingEvent, error) {
	prefix := fmt.Sprintf("typing:%s:", scope)

	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("typing scan: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil, nil
	}

	names, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("typing mget: %w", err)
	}

	out := make([]*model.TypingEvent, 0, len(keys))
	for i, key := range keys {
		name, ok := names[i].(string)
		if !ok {
			continue
		}
		userID, err := uuid.Parse(strings.TrimPrefix(key, prefix))
		if err != nil {
			continue
		}
		out = append(out, &model.TypingEvent{
			Scope:  scope,
			UserID: userID,
			Name:   name,
		})
	}

	return out, nil
}
