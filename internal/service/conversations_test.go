package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"glimo/internal/model"
	"glimo/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func privateMessage(id int64, from, to uuid.UUID, content string) *model.Message {
	return &model.Message{
		ID:          id,
		SenderID:    from,
		RecipientID: &to,
		Content:     content,
		CreatedAt:   time.Unix(id, 0).UTC(),
	}
}

func TestResolveCounterparts(t *testing.T) {
	me, alice, bob := uuid.New(), uuid.New(), uuid.New()
	groupID := uuid.New()

	// newest first, as the store returns them
	rows := []*model.Message{
		privateMessage(6, alice, me, "see you"),
		{ID: 5, SenderID: me, GroupID: &groupID, Content: "group hi"},
		privateMessage(4, me, bob, "deal"),
		privateMessage(3, me, alice, "older"),
		privateMessage(2, bob, me, "offer?"),
		privateMessage(1, uuid.New(), uuid.New(), "not mine"),
	}

	got := ResolveCounterparts(me, rows)

	require.Len(t, got, 2)
	assert.Equal(t, int64(6), got[0].ID)
	assert.Equal(t, alice, got[0].CounterpartOf(me))
	assert.Equal(t, int64(4), got[1].ID)
	assert.Equal(t, bob, got[1].CounterpartOf(me))

	assert.Empty(t, ResolveCounterparts(me, nil))
}

func TestConversationService_Rebuild(t *testing.T) {
	me, alice := uuid.New(), uuid.New()

	tests := []struct {
		name          string
		mockSetup     func(m *mocks.MockRepository)
		expectedCount int
		expectedError bool
	}{
		{
			name: "No history writes nothing",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("ListPrivateMessages", mock.Anything, me).Return([]*model.Message{}, nil)
			},
			expectedCount: 0,
		},
		{
			name: "One summary per counterpart",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("ListPrivateMessages", mock.Anything, me).Return([]*model.Message{
					privateMessage(9, alice, me, "latest"),
					privateMessage(8, me, alice, "earlier"),
				}, nil)
				m.On("UpsertConversationSummaries", mock.Anything, mock.MatchedBy(func(s []*model.ConversationSummary) bool {
					return len(s) == 1 && s[0].PeerID == alice && s[0].LastMessageID == 9 && s[0].LastContent == "latest"
				})).Return(nil)
			},
			expectedCount: 1,
		},
		{
			name: "Store failure",
			mockSetup: func(m *mocks.MockRepository) {
				m.On("ListPrivateMessages", mock.Anything, me).Return(nil, errors.New("connection reset"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockRepository{}
			tt.mockSetup(mockRepo)

			n, err := NewConversationService(mockRepo).Rebuild(context.Background(), me)

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCount, n)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestConversationService_ListClampsLimit(t *testing.T) {
	me := uuid.New()
	mockRepo := &mocks.MockRepository{}
	mockRepo.On("ListConversationSummaries", mock.Anything, me, maxConversations, (*model.ConversationCursor)(nil)).
		Return([]*model.ConversationSummary{}, nil)

	_, err := NewConversationService(mockRepo).List(context.Background(), me, 5000, nil)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestConversationService_ListPassesTupleCursor(t *testing.T) {
	me := uuid.New()
	cursor := &model.ConversationCursor{At: time.Unix(100, 0).UTC(), MessageID: 42}

	mockRepo := &mocks.MockRepository{}
	mockRepo.On("ListConversationSummaries", mock.Anything, me, 20, cursor).
		Return([]*model.ConversationSummary{}, nil)

	_, err := NewConversationService(mockRepo).List(context.Background(), me, 20, cursor)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
