package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"glimo/internal/model"
	"glimo/internal/realtime"
	"glimo/internal/repository"
	"glimo/internal/service/mocks"
	"glimo/pkg/storage"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sequentialIDs struct {
	next int64
}

func (s *sequentialIDs) Generate() snowflake.ID {
	s.next++
	return snowflake.ID(s.next)
}

func newTestMessageService(repo *mocks.MockRepository, pub *mocks.MockPublisher, store *mocks.MockStorage) *MessageService {
	svc := NewMessageService(repo, store, pub, &sequentialIDs{next: 100})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestSortMessages(t *testing.T) {
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	messages := []*model.Message{
		{ID: 30, CreatedAt: at},
		{ID: 10, CreatedAt: at.Add(time.Second)},
		{ID: 20, CreatedAt: at},
		{ID: 5, CreatedAt: at.Add(-time.Minute)},
	}

	SortMessages(messages)

	var ids []int64
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int64{5, 20, 30, 10}, ids)
}

func TestMessageService_Send(t *testing.T) {
	me, peer := uuid.New(), uuid.New()

	tests := []struct {
		name          string
		peerID        uuid.UUID
		content       string
		fileURL       string
		mockSetup     func(m *mocks.MockRepository, p *mocks.MockPublisher)
		expectedError error
	}{
		{
			name:          "Empty message",
			peerID:        peer,
			content:       "   ",
			mockSetup:     func(m *mocks.MockRepository, p *mocks.MockPublisher) {},
			expectedError: ErrInvalidMessage,
		},
		{
			name:          "Too long",
			peerID:        peer,
			content:       strings.Repeat("a", maxMessageLength+1),
			mockSetup:     func(m *mocks.MockRepository, p *mocks.MockPublisher) {},
			expectedError: ErrInvalidMessage,
		},
		{
			name:          "To self",
			peerID:        me,
			content:       "hi",
			mockSetup:     func(m *mocks.MockRepository, p *mocks.MockPublisher) {},
			expectedError: ErrInvalidInput,
		},
		{
			name:    "Unknown recipient",
			peerID:  peer,
			content: "hi",
			mockSetup: func(m *mocks.MockRepository, p *mocks.MockPublisher) {
				m.On("GetProfile", mock.Anything, peer).Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrUserNotFound,
		},
		{
			name:    "Attachment only",
			peerID:  peer,
			fileURL: "https://cdn.example.com/attachments/a.pdf",
			mockSetup: func(m *mocks.MockRepository, p *mocks.MockPublisher) {
				m.On("GetProfile", mock.Anything, peer).Return(&model.Profile{ID: peer}, nil)
				m.On("InsertMessage", mock.Anything, mock.AnythingOfType("*model.Message")).Return(nil)
				p.On("Publish", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name:    "Delivered and announced",
			peerID:  peer,
			content: "  hello  ",
			mockSetup: func(m *mocks.MockRepository, p *mocks.MockPublisher) {
				m.On("GetProfile", mock.Anything, peer).Return(&model.Profile{ID: peer}, nil)
				m.On("InsertMessage", mock.Anything, mock.MatchedBy(func(msg *model.Message) bool {
					return msg.ID == 101 && msg.Content == "hello" && *msg.RecipientID == peer && msg.CreatedAt.Equal(fixedNow)
				})).Return(nil)
				p.On("Publish", mock.Anything, mock.MatchedBy(func(c *realtime.Change) bool {
					return c.Table == realtime.TableMessages &&
						c.Event == realtime.EventInsert &&
						c.Columns["recipient_id"] == peer.String() &&
						c.Columns["sender_id"] == me.String()
				})).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockRepository{}
			mockPub := &mocks.MockPublisher{}
			tt.mockSetup(mockRepo, mockPub)
			service := newTestMessageService(mockRepo, mockPub, &mocks.MockStorage{})

			msg, err := service.Send(context.Background(), me, tt.peerID, tt.content, tt.fileURL)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, msg)
				mockRepo.AssertNotCalled(t, "InsertMessage", mock.Anything, mock.Anything)
				mockPub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, me, msg.SenderID)
			mockRepo.AssertExpectations(t)
			mockPub.AssertExpectations(t)
		})
	}
}

func TestMessageService_PublishFailureStillSucceeds(t *testing.T) {
	me, peer := uuid.New(), uuid.New()
	mockRepo := &mocks.MockRepository{}
	mockPub := &mocks.MockPublisher{}
	mockRepo.On("GetProfile", mock.Anything, peer).Return(&model.Profile{ID: peer}, nil)
	mockRepo.On("InsertMessage", mock.Anything, mock.Anything).Return(nil)
	mockPub.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)

	msg, err := newTestMessageService(mockRepo, mockPub, &mocks.MockStorage{}).Send(context.Background(), me, peer, "hi", "")
	require.NoError(t, err)
	assert.NotNil(t, msg)
}

func TestMessageService_SendGroupRequiresMembership(t *testing.T) {
	me, groupID := uuid.New(), uuid.New()
	mockRepo := &mocks.MockRepository{}
	mockRepo.On("IsGroupMember", mock.Anything, groupID, me).Return(false, nil)

	_, err := newTestMessageService(mockRepo, &mocks.MockPublisher{}, &mocks.MockStorage{}).
		SendGroup(context.Background(), me, groupID, "hi all", "")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestMessageService_TogglePin(t *testing.T) {
	me, peer, stranger := uuid.New(), uuid.New(), uuid.New()

	t.Run("Stranger cannot pin", func(t *testing.T) {
		mockRepo := &mocks.MockRepository{}
		mockRepo.On("GetMessage", mock.Anything, int64(7)).Return(privateMessage(7, me, peer, "x"), nil)

		_, err := newTestMessageService(mockRepo, &mocks.MockPublisher{}, &mocks.MockStorage{}).
			TogglePin(context.Background(), stranger, 7)
		assert.ErrorIs(t, err, ErrNotParticipant)
		mockRepo.AssertNotCalled(t, "ToggleMessageFlag", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Recipient pins and the stored row is published", func(t *testing.T) {
		mockRepo := &mocks.MockRepository{}
		mockPub := &mocks.MockPublisher{}

		// The snapshot predates a concurrent star; the store's row carries it.
		mockRepo.On("GetMessage", mock.Anything, int64(7)).Return(privateMessage(7, me, peer, "x"), nil)
		stored := privateMessage(7, me, peer, "x")
		stored.IsPinned, stored.IsStarred = true, true
		mockRepo.On("ToggleMessageFlag", mock.Anything, int64(7), model.MessageFlagPinned).Return(stored, nil)
		mockPub.On("Publish", mock.Anything, mock.MatchedBy(func(c *realtime.Change) bool {
			return c.Event == realtime.EventUpdate && c.Columns["id"] == "7"
		})).Return(nil)

		msg, err := newTestMessageService(mockRepo, mockPub, &mocks.MockStorage{}).
			TogglePin(context.Background(), peer, 7)
		require.NoError(t, err)
		assert.True(t, msg.IsPinned)
		assert.True(t, msg.IsStarred)
		mockRepo.AssertExpectations(t)
		mockPub.AssertExpectations(t)
	})

	t.Run("Star toggles only the star flag", func(t *testing.T) {
		mockRepo := &mocks.MockRepository{}
		mockPub := &mocks.MockPublisher{}
		mockRepo.On("GetMessage", mock.Anything, int64(9)).Return(privateMessage(9, me, peer, "x"), nil)
		stored := privateMessage(9, me, peer, "x")
		stored.IsStarred = true
		mockRepo.On("ToggleMessageFlag", mock.Anything, int64(9), model.MessageFlagStarred).Return(stored, nil)
		mockPub.On("Publish", mock.Anything, mock.Anything).Return(nil)

		msg, err := newTestMessageService(mockRepo, mockPub, &mocks.MockStorage{}).
			ToggleStar(context.Background(), me, 9)
		require.NoError(t, err)
		assert.True(t, msg.IsStarred)
		assert.False(t, msg.IsPinned)
		mockRepo.AssertNotCalled(t, "ToggleMessageFlag", mock.Anything, int64(9), model.MessageFlagPinned)
	})

	t.Run("Missing message", func(t *testing.T) {
		mockRepo := &mocks.MockRepository{}
		mockRepo.On("GetMessage", mock.Anything, int64(8)).Return(nil, repository.ErrNotFound)

		_, err := newTestMessageService(mockRepo, &mocks.MockPublisher{}, &mocks.MockStorage{}).
			ToggleStar(context.Background(), me, 8)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMessageService_UploadAttachment(t *testing.T) {
	me := uuid.New()
	mockStore := &mocks.MockStorage{}
	mockStore.On("Upload", mock.Anything, mock.MatchedBy(func(o *storage.UploadObject) bool {
		return o.Bucket == AttachmentBucket &&
			strings.HasPrefix(o.Key, me.String()+"/") &&
			strings.HasSuffix(o.Key, "-notes.pdf")
	})).Return(&storage.UploadResponse{URL: "https://cdn.example.com/x"}, nil)

	svc := newTestMessageService(&mocks.MockRepository{}, &mocks.MockPublisher{}, mockStore)

	url, err := svc.UploadAttachment(context.Background(), me, &Upload{Filename: "../../notes.pdf", Mime: "application/pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/x", url)

	_, err = svc.UploadAttachment(context.Background(), me, &Upload{Filename: "empty.txt"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
