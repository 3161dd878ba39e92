package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusProcessing, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusShipped, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusReturned, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusReturned, StatusPending, false},
		{StatusPending, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+" to "+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_Cancellable(t *testing.T) {
	cancellable := map[OrderStatus]bool{
		StatusPending:    true,
		StatusConfirmed:  true,
		StatusProcessing: true,
		StatusShipped:    false,
		StatusDelivered:  false,
		StatusCancelled:  false,
		StatusReturned:   false,
	}
	for status, want := range cancellable {
		assert.Equal(t, want, status.Cancellable(), "status %s", status)
	}
}

func TestOrderStatus_Valid(t *testing.T) {
	for _, status := range []OrderStatus{
		StatusPending, StatusConfirmed, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled, StatusReturned,
	} {
		assert.True(t, status.Valid(), "status %s", status)
	}
	assert.False(t, OrderStatus("teleported").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 30, 45, 0, time.UTC)

	number := NewOrderNumber(now)
	assert.Regexp(t, `^ORD-20260901123045-[0-9A-F]{8}$`, number)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		n := NewOrderNumber(now)
		require.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
}

func TestOrder_AppendAdminNote(t *testing.T) {
	var o Order

	o.AppendAdminNote("")
	assert.Empty(t, o.AdminNotes)

	o.AppendAdminNote("  first  ")
	assert.Equal(t, "first", o.AdminNotes)

	o.AppendAdminNote("second")
	assert.Equal(t, "first\nsecond", o.AdminNotes)
}

func TestOrder_MarshalRoundTrip(t *testing.T) {
	original := Order{
		ID:          "order-1",
		OrderNumber: "ORD-20260901123045-DEADBEEF",
		BuyerID:     "buyer-1",
		Subtotal:    4000,
		TaxAmount:   200,
		TotalAmount: 4200,
		Status:      StatusPending,
		ShippingAddr: Address{
			Street: "12 Harbor Lane",
			City:   "Portsmouth",
		},
		Items: []OrderItem{
			{ProductID: "prod-a", ProductName: "Ceramic Mug", Quantity: 2, UnitPrice: 1000, Subtotal: 2000},
		},
		CreatedAt: time.Date(2026, 9, 1, 12, 30, 45, 0, time.UTC),
	}

	data, err := original.Marshal()
	require.NoError(t, err)

	var decoded Order
	require.NoError(t, decoded.Unmarshal(data))
	assert.Equal(t, original, decoded)
}

func TestOrder_UnmarshalGarbage(t *testing.T) {
	var o Order
	assert.ErrorIs(t, o.Unmarshal([]byte("not gob")), ErrInvalidOrder)
}

func TestProduct_LineTax(t *testing.T) {
	tests := []struct {
		name     string
		price    int64
		rate     float64
		quantity int
		want     int64
	}{
		{"ten percent", 1000, 10, 2, 200},
		{"zero rate", 2000, 0, 1, 0},
		{"rounds half up", 999, 7.5, 1, 75},   // 74.925
		{"rounds down", 101, 7, 1, 7},         // 7.07
		{"single line rounding", 333, 10, 3, 100}, // 99.9 rounded once for the line
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{SellingPrice: tt.price, TaxRate: tt.rate}
			assert.Equal(t, tt.want, p.LineTax(tt.quantity))
		})
	}
}

func TestAddress_Empty(t *testing.T) {
	assert.True(t, Address{}.Empty())
	assert.False(t, Address{City: "Portsmouth"}.Empty())
}
