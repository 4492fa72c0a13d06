package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a private (RecipientID set) or group (GroupID set) chat message.
// ID is a snowflake assigned by the server and is monotonic per node, so it
// breaks ties between identical CreatedAt values.
type Message struct {
	ID          int64                  `json:"id,string"`
	SenderID    uuid.UUID              `json:"sender_id"`
	RecipientID *uuid.UUID             `json:"recipient_id,omitempty"`
	GroupID     *uuid.UUID             `json:"group_id,omitempty"`
	Content     string                 `json:"content"`
	FileURL     string                 `json:"file_url,omitempty"`
	IsPinned    bool                   `json:"is_pinned"`
	IsStarred   bool                   `json:"is_starred"`
	Reactions   map[string][]uuid.UUID `json:"reactions,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// MessageFlag names a boolean toggle stored on a message row.
type MessageFlag string

const (
	MessageFlagPinned  MessageFlag = "is_pinned"
	MessageFlagStarred MessageFlag = "is_starred"
)

func (f MessageFlag) Valid() bool {
	return f == MessageFlagPinned || f == MessageFlagStarred
}

func (m *Message) IsGroup() bool {
	return m.GroupID != nil
}

// CounterpartOf returns the other party of a private message as seen by userID.
func (m *Message) CounterpartOf(userID uuid.UUID) uuid.UUID {
	if m.SenderID == userID && m.RecipientID != nil {
		return *m.RecipientID
	}
	return m.SenderID
}

func (m *Message) Involves(userID uuid.UUID) bool {
	return m.SenderID == userID || (m.RecipientID != nil && *m.RecipientID == userID)
}

type ConversationSummary struct {
	UserID        uuid.UUID
	PeerID        uuid.UUID
	PeerName      string
	PeerAvatarURL string
	LastMessageID int64
	LastSenderID  uuid.UUID
	LastContent   string
	LastMessageAt time.Time
}

// ConversationCursor pages the conversation list, which is ordered by
// (LastMessageAt, LastMessageID) descending. A zero MessageID compares on
// time alone.
type ConversationCursor struct {
	At        time.Time
	MessageID int64
}

// ChatKey is the scope id of a private conversation, identical for both parties.
func ChatKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if strings.Compare(x, y) > 0 {
		x, y = y, x
	}
	return x + "_" + y
}

// ParseChatKey splits a private conversation scope back into its two parties.
func ParseChatKey(key string) (uuid.UUID, uuid.UUID, bool) {
	left, right, found := strings.Cut(key, "_")
	if !found {
		return uuid.Nil, uuid.Nil, false
	}
	a, err := uuid.Parse(left)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	b, err := uuid.Parse(right)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return a, b, true
}

type TypingEvent struct {
	Scope  string    `json:"chat_id"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	At     time.Time `json:"at"`
}

type GroupChat struct {
	ID        uuid.UUID
	Name      string
	OwnerID   uuid.UUID
	CreatedAt time.Time
}

type GroupMember struct {
	GroupID  uuid.UUID
	UserID   uuid.UUID
	Name     string
	JoinedAt time.Time
}
