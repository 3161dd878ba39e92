package repo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type cartRepo struct {
	database
	qb sq.StatementBuilderType
}

func NewCartRepo(db *sqlx.DB) *cartRepo {
	return &cartRepo{
		database: database{db: db},
		qb:       sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Clear removes the buyer's cart rows. Runs inside the create-order
// transaction so a rollback also restores the cart.
func (r *cartRepo) Clear(ctx context.Context, buyerID string) error {
	query, args := r.qb.Delete("cart_items").
		Where(sq.Eq{"buyer_id": buyerID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
