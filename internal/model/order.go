package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of a customer order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses lists the known statuses in display order.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// LineItem is a single product line in an order's cart.
type LineItem struct {
	// ProductName is the display name of the product.
	ProductName string `json:"productName"`

	// Price is the unit price charged to the customer.
	Price decimal.Decimal `json:"ourPrice"`

	// Quantity is the number of units ordered.
	Quantity int `json:"quantity"`
}

// LineTotal returns Price × Quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// UnmarshalJSON decodes a cart line, tolerating loosely typed fields.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var w struct {
		ProductName flexString `json:"productName"`
		Price       flexMoney  `json:"ourPrice"`
		Quantity    flexInt    `json:"quantity"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding line item: %w", err)
	}
	qty := int(w.Quantity)
	if qty < 0 {
		qty = 0
	}
	*li = LineItem{
		ProductName: string(w.ProductName),
		Price:       decimal.Decimal(w.Price),
		Quantity:    qty,
	}
	return nil
}

// Order is a customer order as stored in the customerOrders collection.
// The dashboard only ever reads orders.
type Order struct {
	// ID is the record key assigned by the data source.
	ID string `json:"-"`

	// TokenNumber is the customer-facing sequential order number.
	TokenNumber int `json:"tokenNumber"`

	// InvoiceNumber is the invoice reference printed on the receipt.
	InvoiceNumber string `json:"invoiceNumber"`

	Customer string `json:"customer"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`

	// OrderDate is when the order was placed. Zero when missing.
	OrderDate time.Time `json:"orderDate"`

	Status OrderStatus `json:"status"`

	// TotalAmount is the order total. Never negative.
	TotalAmount decimal.Decimal `json:"totalAmount"`

	// Cart holds the ordered products. Nil when the order has no cart.
	Cart []LineItem `json:"cart"`

	// PDFDownloaded reports whether a receipt was already exported
	// by the shop. It is flipped by an external producer.
	PDFDownloaded bool `json:"pdfDownloaded"`
}

// UnmarshalJSON decodes an order record. Unknown fields are ignored and
// malformed scalar fields decode as zero values.
func (o *Order) UnmarshalJSON(data []byte) error {
	var w struct {
		TokenNumber   flexInt         `json:"tokenNumber"`
		InvoiceNumber flexString      `json:"invoiceNumber"`
		Customer      flexString      `json:"customer"`
		Phone         flexString      `json:"phone"`
		Address       flexString      `json:"address"`
		City          flexString      `json:"city"`
		OrderDate     flexTime        `json:"orderDate"`
		Status        flexString      `json:"status"`
		TotalAmount   flexMoney       `json:"totalAmount"`
		Cart          json.RawMessage `json:"cart"`
		PDFDownloaded flexBool        `json:"pdfDownloaded"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding order: %w", err)
	}

	cart, err := decodeCart(w.Cart)
	if err != nil {
		return err
	}

	*o = Order{
		ID:            o.ID,
		TokenNumber:   int(w.TokenNumber),
		InvoiceNumber: string(w.InvoiceNumber),
		Customer:      string(w.Customer),
		Phone:         string(w.Phone),
		Address:       string(w.Address),
		City:          string(w.City),
		OrderDate:     time.Time(w.OrderDate),
		Status:        OrderStatus(w.Status),
		TotalAmount:   decimal.Decimal(w.TotalAmount),
		Cart:          cart,
		PDFDownloaded: bool(w.PDFDownloaded),
	}
	return nil
}

// ItemCount returns the number of cart lines.
func (o Order) ItemCount() int {
	return len(o.Cart)
}

// decodeCart accepts a JSON array or an object keyed by index.
func decodeCart(raw json.RawMessage) ([]LineItem, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var items []*LineItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decoding cart: %w", err)
		}
		cart := make([]LineItem, 0, len(items))
		for _, it := range items {
			if it != nil {
				cart = append(cart, *it)
			}
		}
		return cart, nil

	case '{':
		var items map[string]*LineItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decoding cart: %w", err)
		}
		keys := make([]string, 0, len(items))
		for k := range items {
			keys = append(keys, k)
		}
		SortKeys(keys)
		cart := make([]LineItem, 0, len(items))
		for _, k := range keys {
			if items[k] != nil {
				cart = append(cart, *items[k])
			}
		}
		return cart, nil
	}

	return nil, nil
}
