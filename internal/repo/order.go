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

var orderColumns = []string{
	"id", "order_number", "buyer_id", "seller_id",
	"subtotal", "tax_amount", "discount_amount", "shipping_cost", "total_amount",
	"status", "payment_status",
	"shipping_name", "shipping_street", "shipping_city", "shipping_region",
	"shipping_zip", "shipping_country", "shipping_phone",
	"billing_name", "billing_street", "billing_city", "billing_region",
	"billing_zip", "billing_country", "billing_phone",
	"customer_notes", "admin_notes", "tracking_number",
	"created_at", "updated_at",
}

var itemColumns = []string{
	"id", "order_id", "product_id", "product_name", "quantity",
	"unit_price", "subtotal", "tax_per_unit", "fulfillment_status",
}

type orderRepo struct {
	database
	qb sq.StatementBuilderType
}

func NewOrderRepo(db *sqlx.DB) *orderRepo {
	return &orderRepo{
		database: database{db: db},
		qb:       sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// CreateOrder inserts the order row and all of its line items. It is meant to
// run inside the orchestrator's transaction; a failure on any insert rolls
// back everything with it.
func (r *orderRepo) CreateOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID, o.OrderNumber, o.BuyerID, nullString(o.SellerID),
			o.Subtotal, o.TaxAmount, o.DiscountAmount, o.ShippingCost, o.TotalAmount,
			string(o.Status), string(o.PaymentStatus),
			nullString(o.ShippingAddr.Name), nullString(o.ShippingAddr.Street),
			nullString(o.ShippingAddr.City), nullString(o.ShippingAddr.Region),
			nullString(o.ShippingAddr.ZIP), nullString(o.ShippingAddr.Country),
			nullString(o.ShippingAddr.Phone),
			nullString(o.BillingAddr.Name), nullString(o.BillingAddr.Street),
			nullString(o.BillingAddr.City), nullString(o.BillingAddr.Region),
			nullString(o.BillingAddr.ZIP), nullString(o.BillingAddr.Country),
			nullString(o.BillingAddr.Phone),
			nullString(o.CustomerNotes), nullString(o.AdminNotes), nullString(o.TrackingNumber),
			o.CreatedAt, o.UpdatedAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if len(o.Items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").Columns(itemColumns...)
	for _, it := range o.Items {
		q = q.Values(
			it.ID, o.ID, it.ProductID, it.ProductName, it.Quantity,
			it.UnitPrice, it.Subtotal, it.TaxPerUnit, string(it.FulfillmentStatus),
		)
	}

	query, args = q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

func (r *orderRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	return r.getOrder(ctx, orderID, false)
}

// GetOrderForUpdate locks the order row for the duration of the surrounding
// transaction so cancellation and status writes cannot interleave.
func (r *orderRepo) GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error) {
	return r.getOrder(ctx, orderID, true)
}

func (r *orderRepo) getOrder(ctx context.Context, orderID string, forUpdate bool) (entities.Order, error) {
	q := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	query, args := q.MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	query, args = r.qb.Select(itemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id").
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order items: %w", err)
	}

	return OrderToEntity(order, items), nil
}

// UpdateStatus is a compare-and-set on the status column: the write only
// lands if the order is still in fromStatus, otherwise ErrStaleOrder.
func (r *orderRepo) UpdateStatus(ctx context.Context, orderID string, fromStatus, toStatus entities.OrderStatus, adminNotes string) error {
	query, args := r.qb.Update("orders").
		Set("status", string(toStatus)).
		Set("admin_notes", nullString(adminNotes)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": orderID, "status": string(fromStatus)}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return entities.ErrStaleOrder
	}
	return nil
}

func (r *orderRepo) UpdatePaymentStatus(ctx context.Context, orderID string, status entities.PaymentStatus) error {
	query, args := r.qb.Update("orders").
		Set("payment_status", string(status)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepo) Stats(ctx context.Context, filter entities.StatsFilter) (entities.OrderStats, error) {
	window := func(q sq.SelectBuilder) sq.SelectBuilder {
		if !filter.From.IsZero() {
			q = q.Where(sq.GtOrEq{"created_at": filter.From})
		}
		if !filter.To.IsZero() {
			q = q.Where(sq.Lt{"created_at": filter.To})
		}
		return q
	}

	query, args := window(r.qb.Select(
		"COUNT(*) AS total_orders",
		"COALESCE(SUM(total_amount), 0) AS total_revenue",
		"COALESCE(AVG(total_amount), 0) AS avg_revenue",
	).From("orders")).MustSql()

	var totals orderTotals
	if err := r.getContext(ctx, &totals, query, args...); err != nil {
		return entities.OrderStats{}, fmt.Errorf("failed to aggregate orders: %w", err)
	}

	stats := entities.OrderStats{
		TotalOrders:     totals.TotalOrders,
		TotalRevenue:    totals.TotalRevenue,
		AverageRevenue:  totals.AvgRevenue,
		ByStatus:        make(map[entities.OrderStatus]int64),
		ByPaymentStatus: make(map[entities.PaymentStatus]int64),
	}

	query, args = window(r.qb.Select("status", "COUNT(*) AS count").
		From("orders").
		GroupBy("status")).MustSql()

	var byStatus []statusCount
	if err := r.selectContext(ctx, &byStatus, query, args...); err != nil {
		return entities.OrderStats{}, fmt.Errorf("failed to count orders by status: %w", err)
	}
	for _, row := range byStatus {
		stats.ByStatus[entities.OrderStatus(row.Status)] = row.Count
	}

	query, args = window(r.qb.Select("payment_status AS status", "COUNT(*) AS count").
		From("orders").
		GroupBy("payment_status")).MustSql()

	var byPayment []statusCount
	if err := r.selectContext(ctx, &byPayment, query, args...); err != nil {
		return entities.OrderStats{}, fmt.Errorf("failed to count orders by payment status: %w", err)
	}
	for _, row := range byPayment {
		stats.ByPaymentStatus[entities.PaymentStatus(row.Status)] = row.Count
	}

	return stats, nil
}
