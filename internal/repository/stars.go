package repository

import (
	"context"
	"fmt"
	"time"

	"glimo/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type StarsLedger struct {
	UserID         uuid.UUID `db:"user_id"`
	StarsPurchased int       `db:"stars_purchased"`
	StarsRemaining int       `db:"stars_remaining"`
}

type voucher struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Kind      string    `db:"kind"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

const profileBoostDuration = 24 * time.Hour

func ensureLedgerWithTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error {
	query, args, err := squirrel.
		Insert("stars").
		Columns("user_id", "stars_purchased", "stars_remaining").
		Values(userID, 0, 0).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func execAffected(ctx context.Context, tx *sqlx.Tx, builder squirrel.Sqlizer) (int64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// GetBalance returns the stars ledger of the user, creating an empty one on
// first access.
func (r *Repository) GetBalance(ctx context.Context, userID uuid.UUID) (*model.StarsLedger, error) {
	var ledger StarsLedger

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := ensureLedgerWithTx(ctx, tx, userID); err != nil {
			return err
		}

		query, args, err := squirrel.
			Select("user_id", "stars_purchased", "stars_remaining").
			From("stars").
			Where(squirrel.Eq{"user_id": userID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		return tx.GetContext(ctx, &ledger, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stars balance: %w", err)
	}

	return &model.StarsLedger{
		UserID:         ledger.UserID,
		StarsPurchased: ledger.StarsPurchased,
		StarsRemaining: ledger.StarsRemaining,
	}, nil
}

func creditStarsWithTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int, purchased bool) error {
	if err := ensureLedgerWithTx(ctx, tx, userID); err != nil {
		return err
	}

	builder := squirrel.
		Update("stars").
		Set("stars_remaining", squirrel.Expr("stars_remaining + ?", amount)).
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)
	if purchased {
		builder = builder.Set("stars_purchased", squirrel.Expr("stars_purchased + ?", amount))
	}

	_, err := execAffected(ctx, tx, builder)
	return err
}

// SpendStars atomically debits amount stars, failing with ErrInsufficientStars
// when the balance is lower.
func (r *Repository) SpendStars(ctx context.Context, userID uuid.UUID, amount int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		return spendStarsWithTx(ctx, tx, userID, amount)
	})
}

func spendStarsWithTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int) error {
	rows, err := execAffected(ctx, tx, squirrel.
		Update("stars").
		Set("stars_remaining", squirrel.Expr("stars_remaining - ?", amount)).
		Where(squirrel.And{
			squirrel.Eq{"user_id": userID},
			squirrel.GtOrEq{"stars_remaining": amount},
		}).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		return fmt.Errorf("failed to debit stars: %w", err)
	}
	if rows == 0 {
		return ErrInsufficientStars
	}

	return nil
}

// chargeSpinWithTx deducts the cost of one spin: a free spin when paidWith is
// PaidWithFreeSpin, starsCost stars otherwise.
func chargeSpinWithTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, paidWith model.SpinPayment, starsCost int) error {
	if paidWith == model.PaidWithStars {
		return spendStarsWithTx(ctx, tx, userID, starsCost)
	}

	rows, err := execAffected(ctx, tx, squirrel.
		Update("user_spins").
		Set("free_spins_remaining", squirrel.Expr("free_spins_remaining - 1")).
		Where(squirrel.And{
			squirrel.Eq{"user_id": userID},
			squirrel.Gt{"free_spins_remaining": 0},
		}).
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		return fmt.Errorf("failed to debit free spin: %w", err)
	}
	if rows == 0 {
		return ErrNoFreeSpins
	}

	return nil
}

func applyPerksWithTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, perks model.Perks) error {
	if perks.Stars != 0 {
		if err := creditStarsWithTx(ctx, tx, userID, perks.Stars, false); err != nil {
			return fmt.Errorf("failed to credit stars: %w", err)
		}
	}

	if perks.FreeSpins != 0 {
		_, err := execAffected(ctx, tx, squirrel.
			Update("user_spins").
			Set("free_spins_remaining", squirrel.Expr("free_spins_remaining + ?", perks.FreeSpins)).
			Where(squirrel.Eq{"user_id": userID}).
			PlaceholderFormat(squirrel.Dollar))
		if err != nil {
			return fmt.Errorf("failed to credit free spins: %w", err)
		}
	}

	if perks.PremiumBook {
		_, err := execAffected(ctx, tx, squirrel.
			Update("profiles").
			Set("premium_book_unlocked", true).
			Set("updated_at", time.Now().UTC()).
			Where(squirrel.Eq{"id": userID}).
			PlaceholderFormat(squirrel.Dollar))
		if err != nil {
			return fmt.Errorf("failed to unlock premium book: %w", err)
		}
	}

	return nil
}

// GrantPerks applies a perk bundle in one transaction.
func (r *Repository) GrantPerks(ctx context.Context, userID uuid.UUID, perks model.Perks) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		return applyPerksWithTx(ctx, tx, userID, perks)
	})
}

// ApplySpinReward charges one spin and settles the drawn reward in a single
// transaction. When the charge cannot be covered nothing is written and
// ErrNoFreeSpins or ErrInsufficientStars is returned.
func (r *Repository) ApplySpinReward(ctx context.Context, userID uuid.UUID, reward model.SpinReward, paidWith model.SpinPayment, starsCost int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()

		if err := chargeSpinWithTx(ctx, tx, userID, paidWith, starsCost); err != nil {
			return err
		}

		if err := applyPerksWithTx(ctx, tx, userID, reward.Perks); err != nil {
			return err
		}

		switch reward.Kind {
		case model.RewardFreeAISession:
			_, err := execAffected(ctx, tx, squirrel.
				Insert("reward_vouchers").
				SetMap(map[string]interface{}{
					"id":         uuid.New(),
					"user_id":    userID,
					"kind":       string(reward.Kind),
					"status":     string(model.VoucherPending),
					"created_at": now,
				}).
				PlaceholderFormat(squirrel.Dollar))
			if err != nil {
				return fmt.Errorf("failed to insert voucher: %w", err)
			}

		case model.RewardProfileBoost:
			_, err := execAffected(ctx, tx, squirrel.
				Update("profiles").
				Set("boosted_until", now.Add(profileBoostDuration)).
				Set("updated_at", now).
				Where(squirrel.Eq{"id": userID}).
				PlaceholderFormat(squirrel.Dollar))
			if err != nil {
				return fmt.Errorf("failed to boost profile: %w", err)
			}
		}

		_, err := execAffected(ctx, tx, squirrel.
			Insert("spin_history").
			SetMap(map[string]interface{}{
				"id":         uuid.New(),
				"user_id":    userID,
				"reward_key": reward.Key,
				"paid_with":  string(paidWith),
				"created_at": now,
			}).
			PlaceholderFormat(squirrel.Dollar))
		if err != nil {
			return fmt.Errorf("failed to record spin: %w", err)
		}

		return nil
	})
}

// CompleteChallenge records a badge and credits stars only the first time it
// is earned. It reports whether the stars were credited.
func (r *Repository) CompleteChallenge(ctx context.Context, userID uuid.UUID, badgeID string, stars int) (bool, error) {
	credited := false

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		rows, err := execAffected(ctx, tx, squirrel.
			Insert("user_badges").
			Columns("user_id", "badge_id", "stars_awarded", "created_at").
			Values(userID, badgeID, stars, time.Now().UTC()).
			Suffix("ON CONFLICT (user_id, badge_id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar))
		if err != nil {
			return fmt.Errorf("failed to insert badge: %w", err)
		}
		if rows == 0 {
			return nil
		}

		if err := creditStarsWithTx(ctx, tx, userID, stars, false); err != nil {
			return fmt.Errorf("failed to credit challenge stars: %w", err)
		}
		credited = true

		return nil
	})
	if err != nil {
		return false, err
	}

	return credited, nil
}

func (r *Repository) ListVouchers(ctx context.Context, userID uuid.UUID) ([]*model.RewardVoucher, error) {
	query, args, err := squirrel.
		Select("id", "user_id", "kind", "status", "created_at").
		From("reward_vouchers").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []voucher
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}

	out := make([]*model.RewardVoucher, len(rows))
	for i, v := range rows {
		out[i] = &model.RewardVoucher{
			ID:        v.ID,
			UserID:    v.UserID,
			Kind:      model.SpinRewardKind(v.Kind),
			Status:    model.VoucherStatus(v.Status),
			CreatedAt: v.CreatedAt,
		}
	}

	return out, nil
}

func (r *Repository) FulfillVoucher(ctx context.Context, id uuid.UUID) error {
	query, args, err := squirrel.
		Update("reward_vouchers").
		Set("status", string(model.VoucherFulfilled)).
		Where(squirrel.Eq{"id": id, "status": string(model.VoucherPending)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// recordPaymentEventWithTx fails with ErrAlreadyProcessed for a replayed event.
func recordPaymentEventWithTx(ctx context.Context, tx *sqlx.Tx, eventID, eventType string) error {
	rows, err := execAffected(ctx, tx, squirrel.
		Insert("payment_events").
		Columns("event_id", "type", "processed_at").
		Values(eventID, eventType, time.Now().UTC()).
		Suffix("ON CONFLICT (event_id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar))
	if err != nil {
		return fmt.Errorf("failed to record payment event: %w", err)
	}
	if rows == 0 {
		return ErrAlreadyProcessed
	}

	return nil
}

// CreditPurchasedStars credits a purchased star bundle to the profile owning
// email, once per payment event.
func (r *Repository) CreditPurchasedStars(ctx context.Context, eventID, eventType, email string, stars int) (*model.Profile, error) {
	var profile *model.Profile

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := recordPaymentEventWithTx(ctx, tx, eventID, eventType); err != nil {
			return err
		}

		var err error
		profile, err = r.getProfileByEmailWithTx(ctx, tx, email)
		if err != nil {
			return err
		}

		return creditStarsWithTx(ctx, tx, profile.ID, stars, true)
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

// ActivatePremium flags the profile owning email as premium, once per payment
// event.
func (r *Repository) ActivatePremium(ctx context.Context, eventID, eventType, email string) (*model.Profile, error) {
	var profile *model.Profile

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := recordPaymentEventWithTx(ctx, tx, eventID, eventType); err != nil {
			return err
		}

		var err error
		profile, err = r.getProfileByEmailWithTx(ctx, tx, email)
		if err != nil {
			return err
		}

		_, err = execAffected(ctx, tx, squirrel.
			Update("profiles").
			Set("is_premium", true).
			Set("updated_at", time.Now().UTC()).
			Where(squirrel.Eq{"id": profile.ID}).
			PlaceholderFormat(squirrel.Dollar))
		if err != nil {
			return fmt.Errorf("failed to activate premium: %w", err)
		}
		profile.IsPremium = true

		return nil
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}
