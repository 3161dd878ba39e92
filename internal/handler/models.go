package handler

import (
	"time"

	"github.com/vendora/order-service/internal/entities"
)

// Address is a postal address
type Address struct {
	Name    string `json:"name,omitempty"`
	Street  string `json:"street,omitempty" validate:"required"`
	City    string `json:"city,omitempty" validate:"required"`
	Region  string `json:"region,omitempty"`
	ZIP     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// RequestedItem is one cart line in a create-order request
type RequestedItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest carries cart items plus the price summary computed by
// the checkout collaborator. Amounts are integer cents.
type CreateOrderRequest struct {
	Items           []RequestedItem `json:"items" validate:"required,min=1,dive"`
	ShippingAddress *Address        `json:"shipping_address" validate:"required"`
	BillingAddress  *Address        `json:"billing_address,omitempty"`
	CustomerNotes   string          `json:"customer_notes,omitempty"`
	DiscountAmount  int64           `json:"discount_amount,omitempty" validate:"gte=0"`
	ShippingCost    int64           `json:"shipping_cost,omitempty" validate:"gte=0"`
	SellerID        string          `json:"seller_id,omitempty"`
}

// UpdateStatusRequest asks for one state-machine transition
type UpdateStatusRequest struct {
	Status     string `json:"status" validate:"required"`
	AdminNotes string `json:"admin_notes,omitempty"`
}

// CancelOrderRequest carries the cancellation reason
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// OrderSummary is returned after a successful creation
type OrderSummary struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	TotalAmount int64     `json:"total_amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderItem is a line item with its creation-time snapshot
type OrderItem struct {
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	Quantity          int    `json:"quantity"`
	UnitPrice         int64  `json:"unit_price"`
	Subtotal          int64  `json:"subtotal"`
	TaxPerUnit        int64  `json:"tax_per_unit"`
	FulfillmentStatus string `json:"fulfillment_status"`
}

// Order is the full order view
type Order struct {
	OrderID         string      `json:"order_id"`
	OrderNumber     string      `json:"order_number"`
	BuyerID         string      `json:"buyer_id"`
	SellerID        string      `json:"seller_id,omitempty"`
	Subtotal        int64       `json:"subtotal"`
	TaxAmount       int64       `json:"tax_amount"`
	DiscountAmount  int64       `json:"discount_amount"`
	ShippingCost    int64       `json:"shipping_cost"`
	TotalAmount     int64       `json:"total_amount"`
	Status          string      `json:"status"`
	PaymentStatus   string      `json:"payment_status"`
	ShippingAddress Address     `json:"shipping_address"`
	BillingAddress  Address     `json:"billing_address"`
	CustomerNotes   string      `json:"customer_notes,omitempty"`
	AdminNotes      string      `json:"admin_notes,omitempty"`
	TrackingNumber  string      `json:"tracking_number,omitempty"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderStats aggregates persisted orders
type OrderStats struct {
	TotalOrders     int64            `json:"total_orders"`
	TotalRevenue    int64            `json:"total_revenue"`
	AverageRevenue  float64          `json:"average_revenue"`
	ByStatus        map[string]int64 `json:"by_status"`
	ByPaymentStatus map[string]int64 `json:"by_payment_status"`
}

func AddressJSONToEntity(a *Address) entities.Address {
	if a == nil {
		return entities.Address{}
	}
	return entities.Address{
		Name:    a.Name,
		Street:  a.Street,
		City:    a.City,
		Region:  a.Region,
		ZIP:     a.ZIP,
		Country: a.Country,
		Phone:   a.Phone,
	}
}

func AddressEntityToJSON(a entities.Address) Address {
	return Address{
		Name:    a.Name,
		Street:  a.Street,
		City:    a.City,
		Region:  a.Region,
		ZIP:     a.ZIP,
		Country: a.Country,
		Phone:   a.Phone,
	}
}

func CreateOrderJSONToInput(req CreateOrderRequest) entities.CreateOrderInput {
	items := make([]entities.RequestedItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, entities.RequestedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	return entities.CreateOrderInput{
		Items:          items,
		ShippingAddr:   AddressJSONToEntity(req.ShippingAddress),
		BillingAddr:    AddressJSONToEntity(req.BillingAddress),
		CustomerNotes:  req.CustomerNotes,
		DiscountAmount: req.DiscountAmount,
		ShippingCost:   req.ShippingCost,
		SellerID:       req.SellerID,
	}
}

func SummaryEntityToJSON(s entities.OrderSummary) OrderSummary {
	return OrderSummary{
		OrderID:     s.OrderID,
		OrderNumber: s.OrderNumber,
		TotalAmount: s.TotalAmount,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
	}
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			ProductID:         it.ProductID,
			ProductName:       it.ProductName,
			Quantity:          it.Quantity,
			UnitPrice:         it.UnitPrice,
			Subtotal:          it.Subtotal,
			TaxPerUnit:        it.TaxPerUnit,
			FulfillmentStatus: string(it.FulfillmentStatus),
		})
	}

	return Order{
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		BuyerID:         o.BuyerID,
		SellerID:        o.SellerID,
		Subtotal:        o.Subtotal,
		TaxAmount:       o.TaxAmount,
		DiscountAmount:  o.DiscountAmount,
		ShippingCost:    o.ShippingCost,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		ShippingAddress: AddressEntityToJSON(o.ShippingAddr),
		BillingAddress:  AddressEntityToJSON(o.BillingAddr),
		CustomerNotes:   o.CustomerNotes,
		AdminNotes:      o.AdminNotes,
		TrackingNumber:  o.TrackingNumber,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func StatsEntityToJSON(s entities.OrderStats) OrderStats {
	byStatus := make(map[string]int64, len(s.ByStatus))
	for status, count := range s.ByStatus {
		byStatus[string(status)] = count
	}
	byPayment := make(map[string]int64, len(s.ByPaymentStatus))
	for status, count := range s.ByPaymentStatus {
		byPayment[string(status)] = count
	}

	return OrderStats{
		TotalOrders:     s.TotalOrders,
		TotalRevenue:    s.TotalRevenue,
		AverageRevenue:  s.AverageRevenue,
		ByStatus:        byStatus,
		ByPaymentStatus: byPayment,
	}
}
