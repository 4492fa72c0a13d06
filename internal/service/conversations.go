package service

import (
	"context"
	"fmt"

	"glimo/internal/model"

	"github.com/google/uuid"
)

const maxConversations = 100

// ResolveCounterparts keeps the first message seen per other party of userID,
// in order of first appearance. Group messages are skipped.
func ResolveCounterparts(userID uuid.UUID, rows []*model.Message) []*model.Message {
	seen := make(map[uuid.UUID]struct{}, len(rows))
	out := make([]*model.Message, 0)

	for _, row := range rows {
		if row.IsGroup() || !row.Involves(userID) {
			continue
		}
		peer := row.CounterpartOf(userID)
		if _, ok := seen[peer]; ok {
			continue
		}
		seen[peer] = struct{}{}
		out = append(out, row)
	}

	return out
}

type ConversationService struct {
	repo ConversationRepository
}

func NewConversationService(repo ConversationRepository) *ConversationService {
	return &ConversationService{repo: repo}
}

// List returns the user's conversations, most recent first. before pages to
// conversations ordered after the cursor.
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID, limit int, before *model.ConversationCursor) ([]*model.ConversationSummary, error) {
	if limit <= 0 || limit > maxConversations {
		limit = maxConversations
	}

	summaries, err := s.repo.ListConversationSummaries(ctx, userID, limit, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return summaries, nil
}

// Rebuild recomputes the user's conversation summaries from the message
// history and returns how many were written.
func (s *ConversationService) Rebuild(ctx context.Context, userID uuid.UUID) (int, error) {
	messages, err := s.repo.ListPrivateMessages(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list messages: %w", err)
	}

	latest := ResolveCounterparts(userID, messages)
	summaries := make([]*model.ConversationSummary, 0, len(latest))
	for _, msg := range latest {
		summaries = append(summaries, &model.ConversationSummary{
			UserID:        userID,
			PeerID:        msg.CounterpartOf(userID),
			LastMessageID: msg.ID,
			LastSenderID:  msg.SenderID,
			LastContent:   msg.Content,
			LastMessageAt: msg.CreatedAt,
		})
	}

	if len(summaries) == 0 {
		return 0, nil
	}

	if err := s.repo.UpsertConversationSummaries(ctx, summaries); err != nil {
		return 0, fmt.Errorf("failed to upsert summaries: %w", err)
	}
	return len(summaries), nil
}
