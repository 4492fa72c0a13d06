package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"glimo/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Message struct {
	ID          int64      `db:"id"`
	SenderID    uuid.UUID  `db:"sender_id"`
	RecipientID *uuid.UUID `db:"recipient_id"`
	GroupID     *uuid.UUID `db:"group_id"`
	Content     string     `db:"content"`
	FileURL     string     `db:"file_url"`
	IsPinned    bool       `db:"is_pinned"`
	IsStarred   bool       `db:"is_starred"`
	Reactions   string     `db:"reactions"`
	CreatedAt   time.Time  `db:"created_at"`
}

var messageColumns = []string{
	"id",
	"sender_id",
	"recipient_id",
	"group_id",
	"content",
	"file_url",
	"is_pinned",
	"is_starred",
	"reactions::text AS reactions",
	"created_at",
}

func (m *Message) toModel() (*model.Message, error) {
	msg := &model.Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		GroupID:     m.GroupID,
		Content:     m.Content,
		FileURL:     m.FileURL,
		IsPinned:    m.IsPinned,
		IsStarred:   m.IsStarred,
		CreatedAt:   m.CreatedAt,
	}

	if m.Reactions != "" && m.Reactions != "{}" {
		if err := json.Unmarshal([]byte(m.Reactions), &msg.Reactions); err != nil {
			return nil, fmt.Errorf("failed to decode reactions of message %d: %w", m.ID, err)
		}
	}

	return msg, nil
}

func toMessages(rows []Message) ([]*model.Message, error) {
	out := make([]*model.Message, len(rows))
	for i := range rows {
		msg, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out[i] = msg
	}
	return out, nil
}

type conversationSummary struct {
	UserID        uuid.UUID `db:"user_id"`
	PeerID        uuid.UUID `db:"peer_id"`
	PeerName      string    `db:"peer_name"`
	PeerAvatarURL string    `db:"peer_avatar_url"`
	LastMessageID int64     `db:"last_message_id"`
	LastSenderID  uuid.UUID `db:"last_sender_id"`
	LastContent   string    `db:"last_content"`
	LastMessageAt time.Time `db:"last_message_at"`
}

// InsertMessage stores the message and, for private messages, advances both
// parties' conversation summaries in the same transaction.
func (r *Repository) InsertMessage(ctx context.Context, msg *model.Message) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("messages").
			SetMap(map[string]interface{}{
				"id":           msg.ID,
				"sender_id":    msg.SenderID,
				"recipient_id": msg.RecipientID,
				"group_id":     msg.GroupID,
				"content":      msg.Content,
				"file_url":     msg.FileURL,
				"created_at":   msg.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build message insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		if msg.RecipientID == nil {
			return nil
		}

		for _, pair := range [][2]uuid.UUID{
			{msg.SenderID, *msg.RecipientID},
			{*msg.RecipientID, msg.SenderID},
		} {
			err := upsertSummaryWithTx(ctx, tx, &model.ConversationSummary{
				UserID:        pair[0],
				PeerID:        pair[1],
				LastMessageID: msg.ID,
				LastSenderID:  msg.SenderID,
				LastContent:   msg.Content,
				LastMessageAt: msg.CreatedAt,
			})
			if err != nil {
				return fmt.Errorf("failed to update conversation summary: %w", err)
			}
		}

		return nil
	})
}

func upsertSummaryWithTx(ctx context.Context, tx *sqlx.Tx, summary *model.ConversationSummary) error {
	query, args, err := squirrel.
		Insert("conversation_summaries").
		SetMap(map[string]interface{}{
			"user_id":         summary.UserID,
			"peer_id":         summary.PeerID,
			"last_message_id": summary.LastMessageID,
			"last_sender_id":  summary.LastSenderID,
			"last_content":    summary.LastContent,
			"last_message_at": summary.LastMessageAt,
		}).
		Suffix(`ON CONFLICT (user_id, peer_id) DO UPDATE SET
			last_message_id = EXCLUDED.last_message_id,
			last_sender_id = EXCLUDED.last_sender_id,
			last_content = EXCLUDED.last_content,
			last_message_at = EXCLUDED.last_message_at
			WHERE conversation_summaries.last_message_id < EXCLUDED.last_message_id`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository) UpsertConversationSummaries(ctx context.Context, summaries []*model.ConversationSummary) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		for _, summary := range summaries {
			if err := upsertSummaryWithTx(ctx, tx, summary); err != nil {
				return fmt.Errorf("failed to upsert conversation summary: %w", err)
			}
		}
		return nil
	})
}

func (r *Repository) ListConversationSummaries(ctx context.Context, userID uuid.UUID, limit int, before *model.ConversationCursor) ([]*model.ConversationSummary, error) {
	builder := squirrel.
		Select(
			"cs.user_id",
			"cs.peer_id",
			"p.name AS peer_name",
			"p.avatar_url AS peer_avatar_url",
			"cs.last_message_id",
			"cs.last_sender_id",
			"cs.last_content",
			"cs.last_message_at",
		).
		From("conversation_summaries cs").
		Join("profiles p ON p.id = cs.peer_id").
		Where(squirrel.Eq{"cs.user_id": userID}).
		OrderBy("cs.last_message_at DESC", "cs.last_message_id DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)
	switch {
	case before == nil:
	case before.MessageID == 0:
		builder = builder.Where(squirrel.Lt{"cs.last_message_at": before.At})
	default:
		builder = builder.Where(squirrel.Expr("(cs.last_message_at, cs.last_message_id) < (?, ?)", before.At, before.MessageID))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []conversationSummary
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	out := make([]*model.ConversationSummary, len(rows))
	for i, row := range rows {
		out[i] = &model.ConversationSummary{
			UserID:        row.UserID,
			PeerID:        row.PeerID,
			PeerName:      row.PeerName,
			PeerAvatarURL: row.PeerAvatarURL,
			LastMessageID: row.LastMessageID,
			LastSenderID:  row.LastSenderID,
			LastContent:   row.LastContent,
			LastMessageAt: row.LastMessageAt,
		}
	}

	return out, nil
}

// GetConversationMessages returns the newest limit messages between a and b
// (older than beforeID when set), in ascending (created_at, id) order.
func (r *Repository) GetConversationMessages(ctx context.Context, a, b uuid.UUID, limit int, beforeID int64) ([]*model.Message, error) {
	return r.selectMessages(ctx, squirrel.Or{
		squirrel.Eq{"sender_id": a, "recipient_id": b},
		squirrel.Eq{"sender_id": b, "recipient_id": a},
	}, limit, beforeID)
}

func (r *Repository) GetGroupMessages(ctx context.Context, groupID uuid.UUID, limit int, beforeID int64) ([]*model.Message, error) {
	return r.selectMessages(ctx, squirrel.Eq{"group_id": groupID}, limit, beforeID)
}

func (r *Repository) selectMessages(ctx context.Context, where squirrel.Sqlizer, limit int, beforeID int64) ([]*model.Message, error) {
	builder := squirrel.
		Select(messageColumns...).
		From("messages").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)
	if beforeID > 0 {
		builder = builder.Where(squirrel.Lt{"id": beforeID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []Message
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}

	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	return toMessages(rows)
}

// ListPrivateMessages returns every private message involving userID, newest
// first.
func (r *Repository) ListPrivateMessages(ctx context.Context, userID uuid.UUID) ([]*model.Message, error) {
	query, args, err := squirrel.
		Select(messageColumns...).
		From("messages").
		Where(squirrel.And{
			squirrel.NotEq{"recipient_id": nil},
			squirrel.Or{
				squirrel.Eq{"sender_id": userID},
				squirrel.Eq{"recipient_id": userID},
			},
		}).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []Message
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}

	return toMessages(rows)
}

func (r *Repository) GetMessage(ctx context.Context, id int64) (*model.Message, error) {
	query, args, err := squirrel.
		Select(messageColumns...).
		From("messages").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row Message
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel()
}

// ToggleMessageFlag flips one flag in place and returns the updated row.
func (r *Repository) ToggleMessageFlag(ctx context.Context, id int64, flag model.MessageFlag) (*model.Message, error) {
	if !flag.Valid() {
		return nil, fmt.Errorf("unknown message flag %q", flag)
	}
	column := string(flag)

	query, args, err := squirrel.
		Update("messages").
		Set(column, squirrel.Expr("NOT "+column)).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(messageColumns, ", ")).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row Message
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel()
}

// ToggleReaction adds userID to the emoji's reactors, or removes it when
// already present. The row is locked for the read-modify-write.
func (r *Repository) ToggleReaction(ctx context.Context, id int64, emoji string, userID uuid.UUID) (*model.Message, error) {
	var msg *model.Message

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Select(messageColumns...).
			From("messages").
			Where(squirrel.Eq{"id": id}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var row Message
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		msg, err = row.toModel()
		if err != nil {
			return err
		}
		if msg.Reactions == nil {
			msg.Reactions = make(map[string][]uuid.UUID)
		}

		reactors := msg.Reactions[emoji]
		removed := false
		for i, reactor := range reactors {
			if reactor == userID {
				reactors = append(reactors[:i], reactors[i+1:]...)
				removed = true
				break
			}
		}
		if !removed {
			reactors = append(reactors, userID)
		}
		if len(reactors) == 0 {
			delete(msg.Reactions, emoji)
		} else {
			msg.Reactions[emoji] = reactors
		}

		encoded, err := json.Marshal(msg.Reactions)
		if err != nil {
			return fmt.Errorf("failed to encode reactions: %w", err)
		}

		_, err = execAffected(ctx, tx, squirrel.
			Update("messages").
			Set("reactions", squirrel.Expr("?::jsonb", string(encoded))).
			Where(squirrel.Eq{"id": id}).
			PlaceholderFormat(squirrel.Dollar))
		return err
	})
	if err != nil {
		return nil, err
	}

	return msg, nil
}
