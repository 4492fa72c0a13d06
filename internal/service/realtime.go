package service

import (
	"context"
	"fmt"

	"glimo/internal/realtime"

	"github.com/google/uuid"
)

// SubscriptionAuthorizer limits realtime subscriptions to rows the user may
// read.
type SubscriptionAuthorizer struct {
	repo MembershipRepository
}

func NewSubscriptionAuthorizer(repo MembershipRepository) *SubscriptionAuthorizer {
	return &SubscriptionAuthorizer{repo: repo}
}

func (a *SubscriptionAuthorizer) AuthorizeSubscription(ctx context.Context, userID uuid.UUID, table string, filter *realtime.Filter) error {
	if filter == nil {
		return fmt.Errorf("%w: a filter is required", ErrForbidden)
	}

	self := userID.String()

	switch table {
	case realtime.TableMessages:
		switch filter.Column {
		case "recipient_id", "sender_id":
			if filter.Value == self {
				return nil
			}
		case "group_id":
			groupID, err := uuid.Parse(filter.Value)
			if err != nil {
				return fmt.Errorf("%w: bad group id", ErrInvalidInput)
			}
			member, err := a.repo.IsGroupMember(ctx, groupID, userID)
			if err != nil {
				return err
			}
			if member {
				return nil
			}
		}

	case realtime.TableTypingEvents:
		if filter.Column == "chat_id" {
			return CanAccessScope(ctx, a.repo, userID, filter.Value)
		}

	case realtime.TablePartnerships:
		if (filter.Column == "receiver_id" || filter.Column == "sender_id") && filter.Value == self {
			return nil
		}
	}

	return ErrForbidden
}
