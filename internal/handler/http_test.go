package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vendora/order-service/internal/entities"
	"github.com/vendora/order-service/internal/handler"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderService struct {
	createOrder  func(ctx context.Context, buyerID string, input entities.CreateOrderInput) (entities.OrderSummary, error)
	getOrder     func(ctx context.Context, orderID, requesterID string) (entities.Order, error)
	updateStatus func(ctx context.Context, orderID string, newStatus entities.OrderStatus, adminNotes string) error
	cancelOrder  func(ctx context.Context, orderID, reason string) error
	stats        func(ctx context.Context, filter entities.StatsFilter) (entities.OrderStats, error)
}

func (f *fakeOrderService) CreateOrder(ctx context.Context, buyerID string, input entities.CreateOrderInput) (entities.OrderSummary, error) {
	return f.createOrder(ctx, buyerID, input)
}

func (f *fakeOrderService) GetOrder(ctx context.Context, orderID, requesterID string) (entities.Order, error) {
	return f.getOrder(ctx, orderID, requesterID)
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, orderID string, newStatus entities.OrderStatus, adminNotes string) error {
	return f.updateStatus(ctx, orderID, newStatus, adminNotes)
}

func (f *fakeOrderService) CancelOrder(ctx context.Context, orderID, reason string) error {
	return f.cancelOrder(ctx, orderID, reason)
}

func (f *fakeOrderService) Stats(ctx context.Context, filter entities.StatsFilter) (entities.OrderStats, error) {
	return f.stats(ctx, filter)
}

func newTestRouter(svc *fakeOrderService) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	handler.NewHTTPHandler(logger, svc).Init(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

var validCreateBody = map[string]any{
	"items": []map[string]any{
		{"product_id": "prod-a", "quantity": 2},
	},
	"shipping_address": map[string]any{
		"street": "12 Harbor Lane",
		"city":   "Portsmouth",
	},
}

func TestHTTPHandler_CreateOrder(t *testing.T) {
	buyerHeaders := map[string]string{"X-Buyer-ID": "buyer-1"}

	t.Run("created", func(t *testing.T) {
		svc := &fakeOrderService{
			createOrder: func(_ context.Context, buyerID string, input entities.CreateOrderInput) (entities.OrderSummary, error) {
				assert.Equal(t, "buyer-1", buyerID)
				require.Len(t, input.Items, 1)
				assert.Equal(t, "prod-a", input.Items[0].ProductID)
				assert.Equal(t, 2, input.Items[0].Quantity)
				assert.Equal(t, "12 Harbor Lane", input.ShippingAddr.Street)

				return entities.OrderSummary{
					OrderID:     "order-1",
					OrderNumber: "ORD-20260901120000-DEADBEEF",
					TotalAmount: 4200,
					Status:      entities.StatusPending,
					CreatedAt:   time.Now().UTC(),
				}, nil
			},
		}

		rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/orders", validCreateBody, buyerHeaders)

		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "order-1", body["order_id"])
		assert.EqualValues(t, 4200, body["total_amount"])
		assert.Equal(t, "pending", body["status"])
	})

	t.Run("missing buyer header", func(t *testing.T) {
		rec := doJSON(t, newTestRouter(&fakeOrderService{}), http.MethodPost, "/orders", validCreateBody, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failures never reach the service", func(t *testing.T) {
		svc := &fakeOrderService{
			createOrder: func(context.Context, string, entities.CreateOrderInput) (entities.OrderSummary, error) {
				t.Fatal("service must not be called")
				return entities.OrderSummary{}, nil
			},
		}
		router := newTestRouter(svc)

		tests := []struct {
			name string
			body map[string]any
		}{
			{
				name: "empty items",
				body: map[string]any{
					"items":            []map[string]any{},
					"shipping_address": map[string]any{"street": "s", "city": "c"},
				},
			},
			{
				name: "zero quantity",
				body: map[string]any{
					"items":            []map[string]any{{"product_id": "p", "quantity": 0}},
					"shipping_address": map[string]any{"street": "s", "city": "c"},
				},
			},
			{
				name: "no shipping address",
				body: map[string]any{
					"items": []map[string]any{{"product_id": "p", "quantity": 1}},
				},
			},
			{
				name: "negative discount",
				body: map[string]any{
					"items":            []map[string]any{{"product_id": "p", "quantity": 1}},
					"shipping_address": map[string]any{"street": "s", "city": "c"},
					"discount_amount":  -100,
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := doJSON(t, router, http.MethodPost, "/orders", tt.body, buyerHeaders)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			})
		}
	})

	t.Run("insufficient inventory maps to conflict with detail", func(t *testing.T) {
		svc := &fakeOrderService{
			createOrder: func(context.Context, string, entities.CreateOrderInput) (entities.OrderSummary, error) {
				return entities.OrderSummary{}, &entities.InsufficientInventoryError{
					ProductID:   "prod-a",
					ProductName: "Ceramic Mug",
					Available:   3,
					Requested:   10,
				}
			},
		}

		rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/orders", validCreateBody, buyerHeaders)

		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "insufficient inventory", body["message"])

		detail, ok := body["detail"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "prod-a", detail["product_id"])
		assert.EqualValues(t, 3, detail["available"])
		assert.EqualValues(t, 10, detail["requested"])
	})

	t.Run("unknown product maps to not found", func(t *testing.T) {
		svc := &fakeOrderService{
			createOrder: func(context.Context, string, entities.CreateOrderInput) (entities.OrderSummary, error) {
				return entities.OrderSummary{}, entities.ErrProductNotFound
			},
		}

		rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/orders", validCreateBody, buyerHeaders)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unexpected errors do not leak", func(t *testing.T) {
		svc := &fakeOrderService{
			createOrder: func(context.Context, string, entities.CreateOrderInput) (entities.OrderSummary, error) {
				return entities.OrderSummary{}, errors.New("pq: connection reset")
			},
		}

		rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/orders", validCreateBody, buyerHeaders)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "internal server error", body["message"])
		assert.NotContains(t, rec.Body.String(), "pq:")
	})
}

func TestHTTPHandler_GetOrder(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := &fakeOrderService{
			getOrder: func(_ context.Context, orderID, requesterID string) (entities.Order, error) {
				assert.Equal(t, "order-1", orderID)
				assert.Equal(t, "buyer-1", requesterID)
				return entities.Order{
					ID:          "order-1",
					OrderNumber: "ORD-20260901120000-DEADBEEF",
					BuyerID:     "buyer-1",
					Subtotal:    4000,
					TaxAmount:   200,
					TotalAmount: 4200,
					Status:      entities.StatusPending,
					Items: []entities.OrderItem{
						{ProductID: "prod-a", ProductName: "Ceramic Mug", Quantity: 2, UnitPrice: 1000, Subtotal: 2000},
					},
				}, nil
			},
		}

		rec := doJSON(t, newTestRouter(svc), http.MethodGet, "/orders/order-1", nil,
			map[string]string{"X-Buyer-ID": "buyer-1"})

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "order-1", body["order_id"])
		assert.EqualValues(t, 4200, body["total_amount"])

		items, ok := body["items"].([]any)
		require.True(t, ok)
		require.Len(t, items, 1)
	})

	t.Run("foreign order is forbidden", func(t *testing.T) {
		svc := &fakeOrderService{
			getOrder: func(context.Context, string, string) (entities.Order, error) {
				return entities.Order{}, entities.ErrUnauthorized
			},
		}
		rec := doJSON(t, newTestRouter(svc), http.MethodGet, "/orders/order-1", nil,
			map[string]string{"X-Buyer-ID": "buyer-2"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &fakeOrderService{
			getOrder: func(context.Context, string, string) (entities.Order, error) {
				return entities.Order{}, entities.ErrOrderNotFound
			},
		}
		rec := doJSON(t, newTestRouter(svc), http.MethodGet, "/orders/nope", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHTTPHandler_UpdateStatus(t *testing.T) {
	t.Run("no content on success", func(t *testing.T) {
		svc := &fakeOrderService{
			updateStatus: func(_ context.Context, orderID string, newStatus entities.OrderStatus, adminNotes string) error {
				assert.Equal(t, "order-1", orderID)
				assert.Equal(t, entities.StatusConfirmed, newStatus)
				assert.Equal(t, "checked by ops", adminNotes)
				return nil
			},
		}

		rec := doJSON(t, newTestRouter(svc), http.MethodPatch, "/orders/order-1/status",
			map[string]any{"status": "confirmed", "admin_notes": "checked by ops"}, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing status field", func(t *testing.T) {
		rec := doJSON(t, newTestRouter(&fakeOrderService{}), http.MethodPatch, "/orders/order-1/status",
			map[string]any{"admin_notes": "no status"}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("illegal transition maps to conflict", func(t *testing.T) {
		svc := &fakeOrderService{
			updateStatus: func(context.Context, string, entities.OrderStatus, string) error {
				return &entities.InvalidTransitionError{
					From: entities.StatusPending,
					To:   entities.StatusShipped,
				}
			},
		}

		rec := doJSON(t, newTestRouter(svc), http.MethodPatch, "/orders/order-1/status",
			map[string]any{"status": "shipped"}, nil)

		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeBody(t, rec)
		detail, ok := body["detail"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "pending", detail["current_status"])
		assert.Equal(t, "shipped", detail["requested_status"])
	})

	t.Run("concurrent modification maps to conflict", func(t *testing.T) {
		svc := &fakeOrderService{
			updateStatus: func(context.Context, string, entities.OrderStatus, string) error {
				return entities.ErrStaleOrder
			},
		}
		rec := doJSON(t, newTestRouter(svc), http.MethodPatch, "/orders/order-1/status",
			map[string]any{"status": "confirmed"}, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHTTPHandler_CancelOrder(t *testing.T) {
	t.Run("no content on success", func(t *testing.T) {
		svc := &fakeOrderService{
			cancelOrder: func(_ context.Context, orderID, reason string) error {
				assert.Equal(t, "order-1", orderID)
				assert.Equal(t, "changed my mind", reason)
				return nil
			},
		}

		rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/orders/order-1/cancel",
			map[string]any{"reason": "changed my mind"}, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("reason is required", func(t *testing.T) {
		rec := doJSON(t, newTestRouter(&fakeOrderService{}), http.MethodPost, "/orders/order-1/cancel",
			map[string]any{}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delivered order maps to conflict", func(t *testing.T) {
		svc := &fakeOrderService{
			cancelOrder: func(context.Context, string, string) error {
				return &entities.CannotCancelError{Status: entities.StatusDelivered}
			},
		}

		rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/orders/order-1/cancel",
			map[string]any{"reason": "too late"}, nil)

		require.Equal(t, http.StatusConflict, rec.Code)
		body := decodeBody(t, rec)
		detail, ok := body["detail"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "delivered", detail["current_status"])
	})
}

func TestHTTPHandler_GetStats(t *testing.T) {
	t.Run("passes the parsed window through", func(t *testing.T) {
		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

		svc := &fakeOrderService{
			stats: func(_ context.Context, filter entities.StatsFilter) (entities.OrderStats, error) {
				assert.True(t, filter.From.Equal(from))
				assert.True(t, filter.To.Equal(to))
				return entities.OrderStats{
					TotalOrders:    2,
					TotalRevenue:   8400,
					AverageRevenue: 4200,
					ByStatus: map[entities.OrderStatus]int64{
						entities.StatusPending: 2,
					},
				}, nil
			},
		}

		target := "/orders/stats?from=" + from.Format(time.RFC3339) + "&to=" + to.Format(time.RFC3339)
		rec := doJSON(t, newTestRouter(svc), http.MethodGet, target, nil, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.EqualValues(t, 2, body["total_orders"])
		assert.EqualValues(t, 8400, body["total_revenue"])
	})

	t.Run("rejects malformed timestamps", func(t *testing.T) {
		rec := doJSON(t, newTestRouter(&fakeOrderService{}), http.MethodGet, "/orders/stats?from=yesterday", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
