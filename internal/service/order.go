package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vendora/order-service/internal/entities"
	"github.com/vendora/order-service/pkg/trm"
	"github.com/vendora/order-service/pkg/utils"

	"github.com/google/uuid"
)

type OrderRepo interface {
	// CreateOrder persists the order row and its line items in one shot.
	CreateOrder(ctx context.Context, o entities.Order) error
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderForUpdate(ctx context.Context, orderID string) (entities.Order, error)

	// UpdateStatus is a compare-and-set: it fails with entities.ErrStaleOrder
	// when the order is no longer in fromStatus.
	UpdateStatus(ctx context.Context, orderID string, fromStatus, toStatus entities.OrderStatus, adminNotes string) error
	UpdatePaymentStatus(ctx context.Context, orderID string, status entities.PaymentStatus) error
	Stats(ctx context.Context, filter entities.StatsFilter) (entities.OrderStats, error)
}

type ProductRepo interface {
	// GetForUpdate must hold a row-level lock until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, productID string) (entities.Product, error)
	UpdateStock(ctx context.Context, productID string, available, sold int) error
}

type CartRepo interface {
	Clear(ctx context.Context, buyerID string) error
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

// EventPublisher notifies the payment-initiation and invoicing collaborators
// strictly after a successful commit. Publish failures never undo the order.
type EventPublisher interface {
	OrderCreated(ctx context.Context, summary entities.OrderSummary) error
	OrderCancelled(ctx context.Context, orderID, reason string) error
}

const statusUpdateAttempts = 3

var readRetry = utils.RetryConfig{
	InitialDelay: 100 * time.Millisecond,
	MaxAttempts:  5,
	Multiplier:   2,
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	orders    OrderRepo
	products  ProductRepo
	carts     CartRepo
	cache     Cache
	events    EventPublisher
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	orders OrderRepo,
	products ProductRepo,
	carts CartRepo,
	cache Cache,
	events EventPublisher,
) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		orders:    orders,
		products:  products,
		carts:     carts,
		cache:     cache,
		events:    events,
	}
}

// CreateOrder validates the request, reserves inventory, persists the order
// with snapshotted line items and clears the buyer's cart, all inside one
// transaction. Either every effect happens or none does.
func (s *orderService) CreateOrder(ctx context.Context, buyerID string, input entities.CreateOrderInput) (entities.OrderSummary, error) {
	if len(input.Items) == 0 {
		return entities.OrderSummary{}, entities.ErrNoItems
	}
	if input.ShippingAddr.Empty() {
		return entities.OrderSummary{}, entities.ErrNoAddress
	}
	for _, it := range input.Items {
		if it.Quantity < 1 {
			return entities.OrderSummary{}, fmt.Errorf("%w: quantity must be positive for product %s",
				entities.ErrInvalidOrder, it.ProductID)
		}
	}

	billing := input.BillingAddr
	if billing.Empty() {
		billing = input.ShippingAddr
	}

	now := time.Now().UTC()
	order := entities.Order{
		ID:             uuid.NewString(),
		OrderNumber:    entities.NewOrderNumber(now),
		BuyerID:        buyerID,
		SellerID:       input.SellerID,
		DiscountAmount: input.DiscountAmount,
		ShippingCost:   input.ShippingCost,
		Status:         entities.StatusPending,
		PaymentStatus:  entities.PaymentPending,
		ShippingAddr:   input.ShippingAddr,
		BillingAddr:    billing,
		CustomerNotes:  input.CustomerNotes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		for _, requested := range input.Items {
			product, err := s.products.GetForUpdate(ctx, requested.ProductID)
			if errors.Is(err, entities.ErrProductNotFound) {
				return fmt.Errorf("%w: %s", entities.ErrProductNotFound, requested.ProductID)
			}
			if err != nil {
				return fmt.Errorf("failed to load product %s: %w", requested.ProductID, err)
			}

			if product.QuantityAvailable < requested.Quantity {
				return &entities.InsufficientInventoryError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.QuantityAvailable,
					Requested:   requested.Quantity,
				}
			}

			// Reservation: the row lock from GetForUpdate makes the
			// check above and this decrement a single atomic step.
			err = s.products.UpdateStock(ctx, product.ID,
				product.QuantityAvailable-requested.Quantity,
				product.QuantitySold+requested.Quantity,
			)
			if err != nil {
				return fmt.Errorf("failed to reserve stock for %s: %w", product.ID, err)
			}

			lineSubtotal := product.SellingPrice * int64(requested.Quantity)
			lineTax := product.LineTax(requested.Quantity)

			order.Items = append(order.Items, entities.OrderItem{
				ID:                uuid.NewString(),
				OrderID:           order.ID,
				ProductID:         product.ID,
				ProductName:       product.Name,
				Quantity:          requested.Quantity,
				UnitPrice:         product.SellingPrice,
				Subtotal:          lineSubtotal,
				TaxPerUnit:        product.LineTax(1),
				FulfillmentStatus: entities.FulfillmentUnfulfilled,
			})

			order.Subtotal += lineSubtotal
			order.TaxAmount += lineTax
			if order.SellerID == "" {
				order.SellerID = product.SellerID
			}
		}

		order.TotalAmount = order.Subtotal + order.TaxAmount + order.ShippingCost - order.DiscountAmount

		if err := s.orders.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := s.carts.Clear(ctx, buyerID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.OrderSummary{}, err
	}

	s.logger.Info("order created",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("buyer_id", buyerID),
		slog.Int64("total_amount", order.TotalAmount),
	)

	summary := entities.OrderSummary{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		BuyerID:     order.BuyerID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
	}

	// Payment initiation happens outside the transaction: a publish failure
	// must not undo an already committed order.
	if err := s.events.OrderCreated(ctx, summary); err != nil {
		s.logger.Error("failed to publish order created event",
			slog.String("order_id", order.ID), slog.Any("error", err))
	}

	return summary, nil
}

// GetOrder composes the order view. When requesterID is set it must match the
// order's buyer.
func (s *orderService) GetOrder(ctx context.Context, orderID, requesterID string) (entities.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	if requesterID != "" && order.BuyerID != requesterID {
		return entities.Order{}, entities.ErrUnauthorized
	}
	return order, nil
}

func (s *orderService) loadOrder(ctx context.Context, orderID string) (entities.Order, error) {
	if data, ok := s.cache.Get(orderID); ok {
		var order entities.Order
		if err := order.Unmarshal(data); err == nil {
			return order, nil
		}
		// Corrupted entry, drop it and fall through to the repo.
		s.cache.Delete(orderID)
	}

	var order entities.Order
	fn := func() error {
		var err error
		order, err = s.orders.GetOrderByID(ctx, orderID)
		return err
	}
	if err := utils.Retry(readRetry, fn, entities.ErrOrderNotFound); err != nil {
		return entities.Order{}, err
	}

	if data, err := order.Marshal(); err == nil {
		s.cache.Set(orderID, data)
	}
	return order, nil
}

// UpdateStatus applies one legal state-machine transition. The write is
// optimistic: a concurrent transition invalidates the read and we re-check
// against the fresh status, up to a bounded number of attempts.
func (s *orderService) UpdateStatus(ctx context.Context, orderID string, newStatus entities.OrderStatus, adminNotes string) error {
	if !newStatus.Valid() {
		return &entities.InvalidTransitionError{To: newStatus}
	}

	for attempt := 0; attempt < statusUpdateAttempts; attempt++ {
		order, err := s.orders.GetOrderByID(ctx, orderID)
		if err != nil {
			return err
		}

		if !order.Status.CanTransitionTo(newStatus) {
			return &entities.InvalidTransitionError{From: order.Status, To: newStatus}
		}

		order.AppendAdminNote(adminNotes)

		err = s.orders.UpdateStatus(ctx, orderID, order.Status, newStatus, order.AdminNotes)
		if errors.Is(err, entities.ErrStaleOrder) {
			continue
		}
		if err != nil {
			return err
		}

		s.cache.Delete(orderID)
		s.logger.Info("order status updated",
			slog.String("order_id", orderID),
			slog.String("from", string(order.Status)),
			slog.String("to", string(newStatus)),
		)
		return nil
	}
	return entities.ErrStaleOrder
}

// CancelOrder is the compensating transaction for CreateOrder: it restores
// every line item's reservation and marks the order cancelled, atomically.
func (s *orderService) CancelOrder(ctx context.Context, orderID, reason string) error {
	var cancelled entities.Order

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if !order.Status.Cancellable() {
			return &entities.CannotCancelError{Status: order.Status}
		}

		for _, item := range order.Items {
			product, err := s.products.GetForUpdate(ctx, item.ProductID)
			if err != nil {
				return fmt.Errorf("failed to load product %s: %w", item.ProductID, err)
			}

			sold := product.QuantitySold - item.Quantity
			if sold < 0 {
				sold = 0
			}
			err = s.products.UpdateStock(ctx, product.ID,
				product.QuantityAvailable+item.Quantity, sold)
			if err != nil {
				return fmt.Errorf("failed to restore stock for %s: %w", product.ID, err)
			}
		}

		order.AppendAdminNote("cancelled: " + reason)
		if err := s.orders.UpdateStatus(ctx, orderID, order.Status, entities.StatusCancelled, order.AdminNotes); err != nil {
			return fmt.Errorf("failed to mark order cancelled: %w", err)
		}

		cancelled = order
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Delete(orderID)
	s.logger.Info("order cancelled",
		slog.String("order_id", orderID),
		slog.String("buyer_id", cancelled.BuyerID),
		slog.String("reason", reason),
	)

	if err := s.events.OrderCancelled(ctx, orderID, reason); err != nil {
		s.logger.Error("failed to publish order cancelled event",
			slog.String("order_id", orderID), slog.Any("error", err))
	}
	return nil
}

// SetPaymentStatus records the verdict reported by the external payment
// collaborator. It never touches the order status machine.
func (s *orderService) SetPaymentStatus(ctx context.Context, orderID string, status entities.PaymentStatus) error {
	if err := s.orders.UpdatePaymentStatus(ctx, orderID, status); err != nil {
		return err
	}
	s.cache.Delete(orderID)
	s.logger.Debug("payment status updated",
		slog.String("order_id", orderID), slog.String("status", string(status)))
	return nil
}

func (s *orderService) Stats(ctx context.Context, filter entities.StatsFilter) (entities.OrderStats, error) {
	var stats entities.OrderStats
	fn := func() error {
		var err error
		stats, err = s.orders.Stats(ctx, filter)
		return err
	}
	if err := utils.Retry(readRetry, fn); err != nil {
		return entities.OrderStats{}, err
	}
	return stats, nil
}
