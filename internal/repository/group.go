package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"glimo/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type groupChat struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	OwnerID   uuid.UUID `db:"owner_id"`
	CreatedAt time.Time `db:"created_at"`
}

type groupMember struct {
	GroupID  uuid.UUID `db:"group_id"`
	UserID   uuid.UUID `db:"user_id"`
	Name     string    `db:"name"`
	JoinedAt time.Time `db:"joined_at"`
}

// CreateGroup inserts the group and its owner as the first member.
func (r *Repository) CreateGroup(ctx context.Context, group *model.GroupChat) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("group_chats").
			SetMap(map[string]interface{}{
				"id":         group.ID,
				"name":       group.Name,
				"owner_id":   group.OwnerID,
				"created_at": group.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build group insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		if _, err := addMemberWithTx(ctx, tx, group.ID, group.OwnerID, group.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert group owner: %w", err)
		}

		return nil
	})
}

func addMemberWithTx(ctx context.Context, tx *sqlx.Tx, groupID, userID uuid.UUID, joinedAt time.Time) (int64, error) {
	return execAffected(ctx, tx, squirrel.
		Insert("group_members").
		Columns("group_id", "user_id", "joined_at").
		Values(groupID, userID, joinedAt).
		Suffix("ON CONFLICT (group_id, user_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar))
}

func (r *Repository) AddGroupMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		rows, err := addMemberWithTx(ctx, tx, groupID, userID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to add group member: %w", err)
		}
		if rows == 0 {
			return ErrAlreadyExists
		}
		return nil
	})
}

func (r *Repository) GetGroup(ctx context.Context, groupID uuid.UUID) (*model.GroupChat, error) {
	query, args, err := squirrel.
		Select("id", "name", "owner_id", "created_at").
		From("group_chats").
		Where(squirrel.Eq{"id": groupID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var group groupChat
	if err := r.db.GetContext(ctx, &group, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.GroupChat{
		ID:        group.ID,
		Name:      group.Name,
		OwnerID:   group.OwnerID,
		CreatedAt: group.CreatedAt,
	}, nil
}

func (r *Repository) IsGroupMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	query, args, err := squirrel.
		Select("1").
		Prefix("SELECT EXISTS (").
		From("group_members").
		Where(squirrel.Eq{"group_id": groupID, "user_id": userID}).
		Suffix(")").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *Repository) ListUserGroups(ctx context.Context, userID uuid.UUID) ([]*model.GroupChat, error) {
	query, args, err := squirrel.
		Select("g.id", "g.name", "g.owner_id", "g.created_at").
		From("group_chats g").
		Join("group_members gm ON gm.group_id = g.id").
		Where(squirrel.Eq{"gm.user_id": userID}).
		OrderBy("g.created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []groupChat
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	out := make([]*model.GroupChat, len(rows))
	for i, g := range rows {
		out[i] = &model.GroupChat{
			ID:        g.ID,
			Name:      g.Name,
			OwnerID:   g.OwnerID,
			CreatedAt: g.CreatedAt,
		}
	}

	return out, nil
}

func (r *Repository) ListGroupMembers(ctx context.Context, groupID uuid.UUID) ([]*model.GroupMember, error) {
	query, args, err := squirrel.
		Select("gm.group_id", "gm.user_id", "p.name", "gm.joined_at").
		From("group_members gm").
		Join("profiles p ON p.id = gm.user_id").
		Where(squirrel.Eq{"gm.group_id": groupID}).
		OrderBy("gm.joined_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []groupMember
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}

	out := make([]*model.GroupMember, len(rows))
	for i, m := range rows {
		out[i] = &model.GroupMember{
			GroupID:  m.GroupID,
			UserID:   m.UserID,
			Name:     m.Name,
			JoinedAt: m.JoinedAt,
		}
	}

	return out, nil
}
