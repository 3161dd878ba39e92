package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/vendora/order-service/internal/entities"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentSetter struct {
	orderID string
	status  entities.PaymentStatus
	err     error
}

func (f *fakePaymentSetter) SetPaymentStatus(_ context.Context, orderID string, status entities.PaymentStatus) error {
	f.orderID = orderID
	f.status = status
	return f.err
}

func newPaymentEventHandler(svc PaymentStatusSetter) *kafkaHandler {
	return &kafkaHandler{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate: validator.New(),
		svc:      svc,
	}
}

func TestKafkaHandler_HandlePaymentEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("valid verdict reaches the service", func(t *testing.T) {
		svc := &fakePaymentSetter{}
		h := newPaymentEventHandler(svc)

		err := h.handlePaymentEvent(ctx, kafka.Message{
			Value: []byte(`{"order_id":"order-1","status":"paid"}`),
		})

		require.NoError(t, err)
		assert.Equal(t, "order-1", svc.orderID)
		assert.Equal(t, entities.PaymentPaid, svc.status)
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		svc := &fakePaymentSetter{}
		h := newPaymentEventHandler(svc)

		err := h.handlePaymentEvent(ctx, kafka.Message{Value: []byte(`{not json`)})

		assert.Error(t, err)
		assert.Empty(t, svc.orderID)
	})

	t.Run("unknown status is rejected before the service", func(t *testing.T) {
		svc := &fakePaymentSetter{}
		h := newPaymentEventHandler(svc)

		err := h.handlePaymentEvent(ctx, kafka.Message{
			Value: []byte(`{"order_id":"order-1","status":"maybe"}`),
		})

		assert.Error(t, err)
		assert.Empty(t, svc.orderID)
	})

	t.Run("missing order id is rejected", func(t *testing.T) {
		svc := &fakePaymentSetter{}
		h := newPaymentEventHandler(svc)

		err := h.handlePaymentEvent(ctx, kafka.Message{
			Value: []byte(`{"status":"paid"}`),
		})

		assert.Error(t, err)
	})

	t.Run("service errors propagate", func(t *testing.T) {
		svc := &fakePaymentSetter{err: entities.ErrOrderNotFound}
		h := newPaymentEventHandler(svc)

		err := h.handlePaymentEvent(ctx, kafka.Message{
			Value: []byte(`{"order_id":"ghost","status":"paid"}`),
		})

		assert.True(t, errors.Is(err, entities.ErrOrderNotFound))
	})
}
