package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"glimo/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type UserSpins struct {
	UserID             uuid.UUID `db:"user_id"`
	FreeSpinsRemaining int       `db:"free_spins_remaining"`
	LastSpinDate       time.Time `db:"last_spin_date"`
}

func (r *Repository) GetUserSpins(ctx context.Context, userID uuid.UUID) (*model.SpinStatus, error) {
	var spins UserSpins

	query, args, err := squirrel.
		Select("user_id", "free_spins_remaining", "last_spin_date").
		From("user_spins").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &spins, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.SpinStatus{
		UserID:             spins.UserID,
		FreeSpinsRemaining: spins.FreeSpinsRemaining,
		LastSpinDate:       spins.LastSpinDate,
	}, nil
}

// CreateUserSpins inserts the daily spin record. A concurrent insert for the
// same user wins silently.
func (r *Repository) CreateUserSpins(ctx context.Context, status *model.SpinStatus) error {
	query, args, err := squirrel.
		Insert("user_spins").
		SetMap(map[string]interface{}{
			"user_id":              status.UserID,
			"free_spins_remaining": status.FreeSpinsRemaining,
			"last_spin_date":       status.LastSpinDate.Format(time.DateOnly),
		}).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// ResetDailySpins restores the daily allotment unless the record was already
// reset for today.
func (r *Repository) ResetDailySpins(ctx context.Context, userID uuid.UUID, today time.Time, allotment int) error {
	day := today.Format(time.DateOnly)

	query, args, err := squirrel.
		Update("user_spins").
		SetMap(map[string]interface{}{
			"free_spins_remaining": allotment,
			"last_spin_date":       day,
		}).
		Where(squirrel.And{
			squirrel.Eq{"user_id": userID},
			squirrel.NotEq{"last_spin_date": day},
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
