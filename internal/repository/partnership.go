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

type partnershipRequest struct {
	SenderID   uuid.UUID `db:"sender_id"`
	ReceiverID uuid.UUID `db:"receiver_id"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (p *partnershipRequest) toModel() *model.PartnershipRequest {
	return &model.PartnershipRequest{
		SenderID:   p.SenderID,
		ReceiverID: p.ReceiverID,
		Status:     model.PartnershipStatus(p.Status),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

var partnershipColumns = []string{"sender_id", "receiver_id", "status", "created_at", "updated_at"}

// UpsertPartnershipRequest inserts a pending request for the pair, or returns
// the existing one unchanged. created reports whether a row was inserted.
func (r *Repository) UpsertPartnershipRequest(ctx context.Context, senderID, receiverID uuid.UUID) (*model.PartnershipRequest, bool, error) {
	var (
		request partnershipRequest
		created bool
	)

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		rows, err := execAffected(ctx, tx, squirrel.
			Insert("partnership_requests").
			SetMap(map[string]interface{}{
				"sender_id":   senderID,
				"receiver_id": receiverID,
				"status":      string(model.PartnershipPending),
				"created_at":  now,
				"updated_at":  now,
			}).
			Suffix("ON CONFLICT (sender_id, receiver_id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar))
		if err != nil {
			return fmt.Errorf("failed to insert partnership request: %w", err)
		}
		created = rows == 1

		query, args, err := squirrel.
			Select(partnershipColumns...).
			From("partnership_requests").
			Where(squirrel.Eq{"sender_id": senderID, "receiver_id": receiverID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		return tx.GetContext(ctx, &request, query, args...)
	})
	if err != nil {
		return nil, false, err
	}

	return request.toModel(), created, nil
}

// RespondPartnershipRequest moves a pending request to status. Requests that
// are missing or already answered yield ErrNotFound.
func (r *Repository) RespondPartnershipRequest(ctx context.Context, senderID, receiverID uuid.UUID, status model.PartnershipStatus) (*model.PartnershipRequest, error) {
	query, args, err := squirrel.
		Update("partnership_requests").
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{
			"sender_id":   senderID,
			"receiver_id": receiverID,
			"status":      string(model.PartnershipPending),
		}).
		Suffix("RETURNING sender_id, receiver_id, status, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var request partnershipRequest
	if err := r.db.GetContext(ctx, &request, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return request.toModel(), nil
}

// ListPartnershipRequests lists requests received (incoming) or sent by userID.
func (r *Repository) ListPartnershipRequests(ctx context.Context, userID uuid.UUID, incoming bool) ([]*model.PartnershipRequest, error) {
	column := "sender_id"
	if incoming {
		column = "receiver_id"
	}

	query, args, err := squirrel.
		Select(partnershipColumns...).
		From("partnership_requests").
		Where(squirrel.Eq{column: userID}).
		OrderBy("updated_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []partnershipRequest
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list partnership requests: %w", err)
	}

	out := make([]*model.PartnershipRequest, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}

	return out, nil
}
