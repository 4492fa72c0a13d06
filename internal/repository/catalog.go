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
	"github.com/lib/pq"
)

type offer struct {
	ID          uuid.UUID      `db:"id"`
	UserID      uuid.UUID      `db:"user_id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Category    string         `db:"category"`
	Tags        pq.StringArray `db:"tags"`
	StarsPrice  int            `db:"stars_price"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (o *offer) toModel() *model.Offer {
	return &model.Offer{
		ID:          o.ID,
		UserID:      o.UserID,
		Title:       o.Title,
		Description: o.Description,
		Category:    o.Category,
		Tags:        []string(o.Tags),
		StarsPrice:  o.StarsPrice,
		CreatedAt:   o.CreatedAt,
	}
}

var offerColumns = []string{"id", "user_id", "title", "description", "category", "tags", "stars_price", "created_at"}

type catalogItem struct {
	ID          uuid.UUID      `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Category    string         `db:"category"`
	Tags        pq.StringArray `db:"tags"`
	URL         string         `db:"url"`
	IsPremium   bool           `db:"is_premium"`
	CreatedAt   time.Time      `db:"created_at"`
}

var catalogColumns = []string{"id", "title", "description", "category", "tags", "url", "is_premium", "created_at"}

func (r *Repository) CreateOffer(ctx context.Context, o *model.Offer) error {
	query, args, err := squirrel.
		Insert("hustle_offers").
		SetMap(map[string]interface{}{
			"id":          o.ID,
			"user_id":     o.UserID,
			"title":       o.Title,
			"description": o.Description,
			"category":    o.Category,
			"tags":        pq.StringArray(o.Tags),
			"stars_price": o.StarsPrice,
			"created_at":  o.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build offer insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert offer: %w", err)
	}

	return nil
}

func (r *Repository) GetOffer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	query, args, err := squirrel.
		Select(offerColumns...).
		From("hustle_offers").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row offer
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) ListOffers(ctx context.Context, filter *model.OfferFilter) ([]*model.Offer, error) {
	builder := squirrel.
		Select(offerColumns...).
		From("hustle_offers").
		OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		PlaceholderFormat(squirrel.Dollar)
	if filter.Category != "" {
		builder = builder.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.Tag != "" {
		builder = builder.Where(squirrel.Expr("? = ANY(tags)", filter.Tag))
	}
	if filter.UserID != nil {
		builder = builder.Where(squirrel.Eq{"user_id": *filter.UserID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []offer
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	out := make([]*model.Offer, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}

	return out, nil
}

// DeleteOffer removes an offer owned by userID.
func (r *Repository) DeleteOffer(ctx context.Context, id, userID uuid.UUID) error {
	query, args, err := squirrel.
		Delete("hustle_offers").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
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

// ListCatalogItems lists items of one catalog table. Premium items are left
// out unless includePremium is set.
func (r *Repository) ListCatalogItems(ctx context.Context, kind model.CatalogKind, category string, includePremium bool) ([]*model.CatalogItem, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown catalog kind %q", kind)
	}

	builder := squirrel.
		Select(catalogColumns...).
		From(string(kind)).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)
	if category != "" {
		builder = builder.Where(squirrel.Eq{"category": category})
	}
	if !includePremium {
		builder = builder.Where(squirrel.Eq{"is_premium": false})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []catalogItem
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}

	out := make([]*model.CatalogItem, len(rows))
	for i, row := range rows {
		out[i] = &model.CatalogItem{
			ID:          row.ID,
			Kind:        kind,
			Title:       row.Title,
			Description: row.Description,
			Category:    row.Category,
			Tags:        []string(row.Tags),
			URL:         row.URL,
			IsPremium:   row.IsPremium,
			CreatedAt:   row.CreatedAt,
		}
	}

	return out, nil
}

func (r *Repository) CreateCatalogItem(ctx context.Context, item *model.CatalogItem) error {
	if !item.Kind.Valid() {
		return fmt.Errorf("unknown catalog kind %q", item.Kind)
	}

	query, args, err := squirrel.
		Insert(string(item.Kind)).
		SetMap(map[string]interface{}{
			"id":          item.ID,
			"title":       item.Title,
			"description": item.Description,
			"category":    item.Category,
			"tags":        pq.StringArray(item.Tags),
			"url":         item.URL,
			"is_premium":  item.IsPremium,
			"created_at":  item.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build catalog insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %s item: %w", item.Kind, err)
	}

	return nil
}
