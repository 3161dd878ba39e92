package repo

import (
	"database/sql"
	"time"

	"github.com/vendora/order-service/internal/entities"
)

type Order struct {
	ID             string         `db:"id"`
	OrderNumber    string         `db:"order_number"`
	BuyerID        string         `db:"buyer_id"`
	SellerID       sql.NullString `db:"seller_id"`
	Subtotal       int64          `db:"subtotal"`
	TaxAmount      int64          `db:"tax_amount"`
	DiscountAmount int64          `db:"discount_amount"`
	ShippingCost   int64          `db:"shipping_cost"`
	TotalAmount    int64          `db:"total_amount"`
	Status         string         `db:"status"`
	PaymentStatus  string         `db:"payment_status"`

	ShippingName    sql.NullString `db:"shipping_name"`
	ShippingStreet  sql.NullString `db:"shipping_street"`
	ShippingCity    sql.NullString `db:"shipping_city"`
	ShippingRegion  sql.NullString `db:"shipping_region"`
	ShippingZip     sql.NullString `db:"shipping_zip"`
	ShippingCountry sql.NullString `db:"shipping_country"`
	ShippingPhone   sql.NullString `db:"shipping_phone"`

	BillingName    sql.NullString `db:"billing_name"`
	BillingStreet  sql.NullString `db:"billing_street"`
	BillingCity    sql.NullString `db:"billing_city"`
	BillingRegion  sql.NullString `db:"billing_region"`
	BillingZip     sql.NullString `db:"billing_zip"`
	BillingCountry sql.NullString `db:"billing_country"`
	BillingPhone   sql.NullString `db:"billing_phone"`

	CustomerNotes  sql.NullString `db:"customer_notes"`
	AdminNotes     sql.NullString `db:"admin_notes"`
	TrackingNumber sql.NullString `db:"tracking_number"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

type OrderItem struct {
	ID                string `db:"id"`
	OrderID           string `db:"order_id"`
	ProductID         string `db:"product_id"`
	ProductName       string `db:"product_name"`
	Quantity          int    `db:"quantity"`
	UnitPrice         int64  `db:"unit_price"`
	Subtotal          int64  `db:"subtotal"`
	TaxPerUnit        int64  `db:"tax_per_unit"`
	FulfillmentStatus string `db:"fulfillment_status"`
}

type Product struct {
	ID                string         `db:"id"`
	Name              string         `db:"name"`
	SellerID          sql.NullString `db:"seller_id"`
	SellingPrice      int64          `db:"selling_price"`
	TaxRate           float64        `db:"tax_rate"`
	QuantityAvailable int            `db:"quantity_available"`
	QuantitySold      int            `db:"quantity_sold"`
}

type statusCount struct {
	Status string `db:"status"`
	Count  int64  `db:"count"`
}

type orderTotals struct {
	TotalOrders  int64   `db:"total_orders"`
	TotalRevenue int64   `db:"total_revenue"`
	AvgRevenue   float64 `db:"avg_revenue"`
}

func OrderToEntity(o Order, items []OrderItem) entities.Order {
	order := entities.Order{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		BuyerID:        o.BuyerID,
		SellerID:       nullStringToString(o.SellerID),
		Subtotal:       o.Subtotal,
		TaxAmount:      o.TaxAmount,
		DiscountAmount: o.DiscountAmount,
		ShippingCost:   o.ShippingCost,
		TotalAmount:    o.TotalAmount,
		Status:         entities.OrderStatus(o.Status),
		PaymentStatus:  entities.PaymentStatus(o.PaymentStatus),
		ShippingAddr: entities.Address{
			Name:    nullStringToString(o.ShippingName),
			Street:  nullStringToString(o.ShippingStreet),
			City:    nullStringToString(o.ShippingCity),
			Region:  nullStringToString(o.ShippingRegion),
			ZIP:     nullStringToString(o.ShippingZip),
			Country: nullStringToString(o.ShippingCountry),
			Phone:   nullStringToString(o.ShippingPhone),
		},
		BillingAddr: entities.Address{
			Name:    nullStringToString(o.BillingName),
			Street:  nullStringToString(o.BillingStreet),
			City:    nullStringToString(o.BillingCity),
			Region:  nullStringToString(o.BillingRegion),
			ZIP:     nullStringToString(o.BillingZip),
			Country: nullStringToString(o.BillingCountry),
			Phone:   nullStringToString(o.BillingPhone),
		},
		CustomerNotes:  nullStringToString(o.CustomerNotes),
		AdminNotes:     nullStringToString(o.AdminNotes),
		TrackingNumber: nullStringToString(o.TrackingNumber),
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}

	if len(items) > 0 {
		order.Items = make([]entities.OrderItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, ItemToEntity(it))
		}
	}

	return order
}

func ItemToEntity(i OrderItem) entities.OrderItem {
	return entities.OrderItem{
		ID:                i.ID,
		OrderID:           i.OrderID,
		ProductID:         i.ProductID,
		ProductName:       i.ProductName,
		Quantity:          i.Quantity,
		UnitPrice:         i.UnitPrice,
		Subtotal:          i.Subtotal,
		TaxPerUnit:        i.TaxPerUnit,
		FulfillmentStatus: entities.FulfillmentStatus(i.FulfillmentStatus),
	}
}

func ProductToEntity(p Product) entities.Product {
	return entities.Product{
		ID:                p.ID,
		Name:              p.Name,
		SellerID:          nullStringToString(p.SellerID),
		SellingPrice:      p.SellingPrice,
		TaxRate:           p.TaxRate,
		QuantityAvailable: p.QuantityAvailable,
		QuantitySold:      p.QuantitySold,
	}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
