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

type Profile struct {
	ID                  uuid.UUID  `db:"id"`
	Email               string     `db:"email"`
	Name                string     `db:"name"`
	AvatarURL           string     `db:"avatar_url"`
	Phone               string     `db:"phone"`
	Address             string     `db:"address"`
	Role                string     `db:"role"`
	IsPremium           bool       `db:"is_premium"`
	PremiumBookUnlocked bool       `db:"premium_book_unlocked"`
	BoostedUntil        *time.Time `db:"boosted_until"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

var profileColumns = []string{
	"id",
	"email",
	"name",
	"avatar_url",
	"phone",
	"address",
	"role",
	"is_premium",
	"premium_book_unlocked",
	"boosted_until",
	"created_at",
	"updated_at",
}

func (p *Profile) toModel() *model.Profile {
	return &model.Profile{
		ID:                  p.ID,
		Email:               p.Email,
		Name:                p.Name,
		AvatarURL:           p.AvatarURL,
		Phone:               p.Phone,
		Address:             p.Address,
		Role:                model.Role(p.Role),
		IsPremium:           p.IsPremium,
		PremiumBookUnlocked: p.PremiumBookUnlocked,
		BoostedUntil:        p.BoostedUntil,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

type leaderboardRow struct {
	UserID    uuid.UUID `db:"user_id"`
	Name      string    `db:"name"`
	AvatarURL string    `db:"avatar_url"`
	Stars     int       `db:"stars_remaining"`
}

// CreateProfile inserts the profile together with an empty stars ledger. An
// existing profile with the same id is left untouched.
func (r *Repository) CreateProfile(ctx context.Context, profile *model.Profile) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("profiles").
			SetMap(map[string]interface{}{
				"id":         profile.ID,
				"email":      profile.Email,
				"name":       profile.Name,
				"avatar_url": profile.AvatarURL,
				"role":       string(profile.Role),
				"is_premium": profile.IsPremium,
				"created_at": profile.CreatedAt,
				"updated_at": profile.UpdatedAt,
			}).
			Suffix("ON CONFLICT (id) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build profile insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert profile: %w", err)
		}

		if err := ensureLedgerWithTx(ctx, tx, profile.ID); err != nil {
			return fmt.Errorf("failed to insert stars ledger: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query, args, err := squirrel.
		Select(profileColumns...).
		From("profiles").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var profile Profile
	err = r.db.GetContext(ctx, &profile, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return profile.toModel(), nil
}

func (r *Repository) getProfileByEmailWithTx(ctx context.Context, tx *sqlx.Tx, email string) (*model.Profile, error) {
	query, args, err := squirrel.
		Select(profileColumns...).
		From("profiles").
		Where(squirrel.Expr("lower(email) = lower(?)", email)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var profile Profile
	err = tx.GetContext(ctx, &profile, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return profile.toModel(), nil
}

func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, update *model.ProfileUpdate) (*model.Profile, error) {
	set := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}

	if err := r.updateProfileColumns(ctx, id, set); err != nil {
		return nil, err
	}

	return r.GetProfile(ctx, id)
}

func (r *Repository) SetAvatarURL(ctx context.Context, id uuid.UUID, url string) error {
	return r.updateProfileColumns(ctx, id, map[string]interface{}{
		"avatar_url": url,
		"updated_at": time.Now().UTC(),
	})
}

func (r *Repository) SetRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	return r.updateProfileColumns(ctx, id, map[string]interface{}{
		"role":       string(role),
		"updated_at": time.Now().UTC(),
	})
}

func (r *Repository) SetPremium(ctx context.Context, id uuid.UUID, premium bool) error {
	return r.updateProfileColumns(ctx, id, map[string]interface{}{
		"is_premium": premium,
		"updated_at": time.Now().UTC(),
	})
}

func (r *Repository) updateProfileColumns(ctx context.Context, id uuid.UUID, set map[string]interface{}) error {
	query, args, err := squirrel.
		Update("profiles").
		SetMap(set).
		Where(squirrel.Eq{"id": id}).
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

func (r *Repository) ListProfiles(ctx context.Context, limit, offset int) ([]*model.Profile, error) {
	query, args, err := squirrel.
		Select(profileColumns...).
		From("profiles").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var profiles []Profile
	err = r.db.SelectContext(ctx, &profiles, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	out := make([]*model.Profile, len(profiles))
	for i := range profiles {
		out[i] = profiles[i].toModel()
	}

	return out, nil
}

func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	query, args, err := squirrel.
		Select("s.user_id", "p.name", "p.avatar_url", "s.stars_remaining").
		From("stars s").
		Join("profiles p ON p.id = s.user_id").
		OrderBy("s.stars_remaining DESC", "p.created_at ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []leaderboardRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	entries := make([]*model.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = &model.LeaderboardEntry{
			UserID:    row.UserID,
			Name:      row.Name,
			AvatarURL: row.AvatarURL,
			Stars:     row.Stars,
		}
	}

	return entries, nil
}

func (r *Repository) SubscribeNewsletter(ctx context.Context, email string) error {
	query, args, err := squirrel.
		Insert("newsletter_subscribers").
		Columns("email", "created_at").
		Values(email, time.Now().UTC()).
		Suffix("ON CONFLICT (email) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build newsletter insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
