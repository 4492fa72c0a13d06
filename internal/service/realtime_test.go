package service

import (
	"context"
	"testing"

	"glimo/internal/model"
	"glimo/internal/realtime"
	"glimo/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSubscriptionAuthorizer(t *testing.T) {
	me, peer := uuid.New(), uuid.New()
	myGroup, otherGroup := uuid.New(), uuid.New()

	mockRepo := &mocks.MockRepository{}
	mockRepo.On("IsGroupMember", mock.Anything, myGroup, me).Return(true, nil)
	mockRepo.On("IsGroupMember", mock.Anything, otherGroup, me).Return(false, nil)

	authorizer := NewSubscriptionAuthorizer(mockRepo)

	tests := []struct {
		name    string
		table   string
		filter  *realtime.Filter
		allowed bool
	}{
		{"No filter", realtime.TableMessages, nil, false},
		{"Own inbox", realtime.TableMessages, &realtime.Filter{Column: "recipient_id", Value: me.String()}, true},
		{"Own outbox", realtime.TableMessages, &realtime.Filter{Column: "sender_id", Value: me.String()}, true},
		{"Someone else's inbox", realtime.TableMessages, &realtime.Filter{Column: "recipient_id", Value: peer.String()}, false},
		{"Member group", realtime.TableMessages, &realtime.Filter{Column: "group_id", Value: myGroup.String()}, true},
		{"Foreign group", realtime.TableMessages, &realtime.Filter{Column: "group_id", Value: otherGroup.String()}, false},
		{"Unfiltered column", realtime.TableMessages, &realtime.Filter{Column: "content", Value: "hi"}, false},
		{"Own chat typing", realtime.TableTypingEvents, &realtime.Filter{Column: "chat_id", Value: model.ChatKey(me, peer)}, true},
		{"Foreign chat typing", realtime.TableTypingEvents, &realtime.Filter{Column: "chat_id", Value: model.ChatKey(peer, uuid.New())}, false},
		{"Own partnership requests", realtime.TablePartnerships, &realtime.Filter{Column: "receiver_id", Value: me.String()}, true},
		{"Foreign partnership requests", realtime.TablePartnerships, &realtime.Filter{Column: "receiver_id", Value: peer.String()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authorizer.AuthorizeSubscription(context.Background(), me, tt.table, tt.filter)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
