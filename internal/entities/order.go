package entities

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusReturned   OrderStatus = "returned"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentFulfilled   FulfillmentStatus = "fulfilled"
	FulfillmentReturned    FulfillmentStatus = "returned"
)

// statusTransitions is the only source of truth for legal order status
// changes. cancelled and returned are terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {StatusReturned},
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range statusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in this status may still be cancelled
// with inventory compensation. Shipped goods can only come back as a return.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing:
		return true
	default:
		return false
	}
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

type Address struct {
	Name    string
	Street  string
	City    string
	Region  string
	ZIP     string
	Country string
	Phone   string
}

func (a Address) Empty() bool {
	return a == Address{}
}

// OrderItem snapshots product name and unit price at creation time, so later
// catalog edits never change a historical order. Money is in integer cents.
type OrderItem struct {
	ID                string
	OrderID           string
	ProductID         string
	ProductName       string
	Quantity          int
	UnitPrice         int64
	Subtotal          int64
	TaxPerUnit        int64
	FulfillmentStatus FulfillmentStatus
}

type Order struct {
	ID             string
	OrderNumber    string
	BuyerID        string
	SellerID       string
	Subtotal       int64
	TaxAmount      int64
	DiscountAmount int64
	ShippingCost   int64
	TotalAmount    int64
	Status         OrderStatus
	PaymentStatus  PaymentStatus
	ShippingAddr   Address
	BillingAddr    Address
	CustomerNotes  string
	AdminNotes     string
	TrackingNumber string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items []OrderItem
}

// AppendAdminNote keeps prior notes so cancellation reasons and operator
// remarks accumulate instead of overwriting each other.
func (o *Order) AppendAdminNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if o.AdminNotes == "" {
		o.AdminNotes = note
		return
	}
	o.AdminNotes = o.AdminNotes + "\n" + note
}

// NewOrderNumber builds a globally unique, human-sortable order number:
// a UTC timestamp prefix plus a random suffix.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102150405"), suffix)
}

// CreateOrderInput carries everything the orchestrator needs from upstream.
// DiscountAmount and ShippingCost are computed by the checkout collaborator.
type CreateOrderInput struct {
	Items          []RequestedItem
	ShippingAddr   Address
	BillingAddr    Address
	CustomerNotes  string
	DiscountAmount int64
	ShippingCost   int64
	SellerID       string
}

type RequestedItem struct {
	ProductID string
	Quantity  int
}

// OrderSummary is the post-commit view handed to the payment-initiation and
// invoice collaborators.
type OrderSummary struct {
	OrderID     string
	OrderNumber string
	BuyerID     string
	TotalAmount int64
	Status      OrderStatus
	CreatedAt   time.Time
}

type StatsFilter struct {
	From time.Time
	To   time.Time
}

type OrderStats struct {
	TotalOrders     int64
	TotalRevenue    int64
	AverageRevenue  float64
	ByStatus        map[OrderStatus]int64
	ByPaymentStatus map[PaymentStatus]int64
}

func (o *Order) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Order) Unmarshal(data []byte) error {
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(o); err != nil {
		return ErrInvalidOrder
	}
	return nil
}

func init() {
	gob.Register(Order{})
	gob.Register(OrderItem{})
	gob.Register(Address{})
}
