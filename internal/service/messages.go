package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"glimo/internal/model"
	"glimo/internal/realtime"
	"glimo/internal/repository"
	"glimo/pkg/storage"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

const (
	AttachmentBucket = "attachments"

	defaultHistorySize = 50
	maxHistorySize     = 200
	maxMessageLength   = 4000
	maxEmojiLength     = 16
)

// IDGenerator issues time-ordered message ids.
type IDGenerator interface {
	Generate() snowflake.ID
}

type MessageService struct {
	repo      MessageRepository
	storage   storage.Storage
	publisher realtime.Publisher
	ids       IDGenerator
	now       func() time.Time
}

func NewMessageService(repo MessageRepository, storage storage.Storage, publisher realtime.Publisher, ids IDGenerator) *MessageService {
	return &MessageService{
		repo:      repo,
		storage:   storage,
		publisher: publisher,
		ids:       ids,
		now:       time.Now,
	}
}

// SortMessages orders messages by creation time, breaking ties by id.
func SortMessages(messages []*model.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		a, b := messages[i], messages[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return defaultHistorySize
	}
	if limit > maxHistorySize {
		return maxHistorySize
	}
	return limit
}

func messageChange(event realtime.Event, msg *model.Message) (*realtime.Change, error) {
	columns := map[string]string{
		"id":        fmt.Sprint(msg.ID),
		"sender_id": msg.SenderID.String(),
	}
	if msg.RecipientID != nil {
		columns["recipient_id"] = msg.RecipientID.String()
	}
	if msg.GroupID != nil {
		columns["group_id"] = msg.GroupID.String()
	}
	return realtime.NewChange(realtime.TableMessages, event, msg, columns)
}

func (s *MessageService) History(ctx context.Context, userID, peerID uuid.UUID, limit int, beforeID int64) ([]*model.Message, error) {
	messages, err := s.repo.GetConversationMessages(ctx, userID, peerID, historyLimit(limit), beforeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	SortMessages(messages)
	return messages, nil
}

func (s *MessageService) GroupHistory(ctx context.Context, userID, groupID uuid.UUID, limit int, beforeID int64) ([]*model.Message, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	messages, err := s.repo.GetGroupMessages(ctx, groupID, historyLimit(limit), beforeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group messages: %w", err)
	}
	SortMessages(messages)
	return messages, nil
}

func (s *MessageService) requireMember(ctx context.Context, groupID, userID uuid.UUID) error {
	member, err := s.repo.IsGroupMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return ErrNotParticipant
	}
	return nil
}

func validateMessage(content, fileURL string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" && fileURL == "" {
		return "", ErrInvalidMessage
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidMessage, maxMessageLength)
	}
	return content, nil
}

// Send stores a private message and announces it. The returned message is
// the stored row.
func (s *MessageService) Send(ctx context.Context, userID, peerID uuid.UUID, content, fileURL string) (*model.Message, error) {
	content, err := validateMessage(content, fileURL)
	if err != nil {
		return nil, err
	}
	if userID == peerID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrInvalidInput)
	}

	if _, err := s.repo.GetProfile(ctx, peerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}

	msg := &model.Message{
		ID:          s.ids.Generate().Int64(),
		SenderID:    userID,
		RecipientID: &peerID,
		Content:     content,
		FileURL:     fileURL,
		Reactions:   map[string][]uuid.UUID{},
		CreatedAt:   s.now().UTC(),
	}

	return s.insert(ctx, msg)
}

func (s *MessageService) SendGroup(ctx context.Context, userID, groupID uuid.UUID, content, fileURL string) (*model.Message, error) {
	content, err := validateMessage(content, fileURL)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		ID:        s.ids.Generate().Int64(),
		SenderID:  userID,
		GroupID:   &groupID,
		Content:   content,
		FileURL:   fileURL,
		Reactions: map[string][]uuid.UUID{},
		CreatedAt: s.now().UTC(),
	}

	return s.insert(ctx, msg)
}

func (s *MessageService) insert(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	change, err := messageChange(realtime.EventInsert, msg)
	publish(ctx, s.publisher, change, err)

	return msg, nil
}

// participantMessage loads a message the user is allowed to modify.
func (s *MessageService) participantMessage(ctx context.Context, userID uuid.UUID, messageID int64) (*model.Message, error) {
	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	if msg.IsGroup() {
		if err := s.requireMember(ctx, *msg.GroupID, userID); err != nil {
			return nil, err
		}
		return msg, nil
	}

	if !msg.Involves(userID) {
		return nil, ErrNotParticipant
	}
	return msg, nil
}

func (s *MessageService) TogglePin(ctx context.Context, userID uuid.UUID, messageID int64) (*model.Message, error) {
	return s.toggleFlag(ctx, userID, messageID, model.MessageFlagPinned)
}

func (s *MessageService) ToggleStar(ctx context.Context, userID uuid.UUID, messageID int64) (*model.Message, error) {
	return s.toggleFlag(ctx, userID, messageID, model.MessageFlagStarred)
}

// toggleFlag flips the flag in the store and publishes the row the store
// returned, so concurrent toggles of either flag are never overwritten.
func (s *MessageService) toggleFlag(ctx context.Context, userID uuid.UUID, messageID int64, flag model.MessageFlag) (*model.Message, error) {
	if _, err := s.participantMessage(ctx, userID, messageID); err != nil {
		return nil, err
	}

	msg, err := s.repo.ToggleMessageFlag(ctx, messageID, flag)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	change, err := messageChange(realtime.EventUpdate, msg)
	publish(ctx, s.publisher, change, err)

	return msg, nil
}

// React toggles the user's emoji reaction on a message.
func (s *MessageService) React(ctx context.Context, userID uuid.UUID, messageID int64, emoji string) (*model.Message, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || len(emoji) > maxEmojiLength {
		return nil, fmt.Errorf("%w: invalid reaction", ErrInvalidInput)
	}

	if _, err := s.participantMessage(ctx, userID, messageID); err != nil {
		return nil, err
	}

	msg, err := s.repo.ToggleReaction(ctx, messageID, emoji, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to toggle reaction: %w", err)
	}

	change, err := messageChange(realtime.EventUpdate, msg)
	publish(ctx, s.publisher, change, err)

	return msg, nil
}

// UploadAttachment stores a chat attachment and returns its public URL.
func (s *MessageService) UploadAttachment(ctx context.Context, userID uuid.UUID, file *Upload) (string, error) {
	if len(file.Data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrInvalidInput)
	}

	resp, err := s.storage.Upload(ctx, &storage.UploadObject{
		Bucket: AttachmentBucket,
		Key:    fmt.Sprintf("%s/%s-%s", userID, uuid.NewString(), path.Base(file.Filename)),
		Data:   file.Data,
		Mime:   file.Mime,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	return resp.URL, nil
}
