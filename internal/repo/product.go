package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vendora/order-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type productRepo struct {
	database
	qb sq.StatementBuilderType
}

func NewProductRepo(db *sqlx.DB) *productRepo {
	return &productRepo{
		database: database{db: db},
		qb:       sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetForUpdate loads the product row under a row-level lock held until the
// surrounding transaction ends. Two concurrent reservations for the same
// product serialize here, which is what keeps the availability check and the
// decrement atomic.
func (r *productRepo) GetForUpdate(ctx context.Context, productID string) (entities.Product, error) {
	query, args := r.qb.Select(
		"id", "name", "seller_id", "selling_price", "tax_rate",
		"quantity_available", "quantity_sold").
		From("products").
		Where(sq.Eq{"id": productID}).
		Suffix("FOR UPDATE").
		MustSql()

	var product Product
	err := r.getContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Product{}, entities.ErrProductNotFound
	}
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	return ProductToEntity(product), nil
}

// UpdateStock writes absolute counter values computed by the caller while it
// holds the row lock from GetForUpdate.
func (r *productRepo) UpdateStock(ctx context.Context, productID string, available, sold int) error {
	query, args := r.qb.Update("products").
		Set("quantity_available", available).
		Set("quantity_sold", sold).
		Where(sq.Eq{"id": productID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return entities.ErrProductNotFound
	}
	return nil
}
