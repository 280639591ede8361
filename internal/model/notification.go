package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NotificationType classifies a notification record.
type NotificationType string

const (
	NotificationNewOrder    NotificationType = "new_order"
	NotificationStockUpdate NotificationType = "stock_update"
)

// OrderSummary is the short order description embedded in a notification.
type OrderSummary struct {
	TokenNumber  int             `json:"tokenNumber"`
	CustomerName string          `json:"customerName"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
}

// Notification is an alert record from the notifications collection.
// Read state is owned by the producer; the dashboard never writes it.
type Notification struct {
	// ID is the record key assigned by the data source.
	ID string `json:"-"`

	// Type identifies what triggered the notification. Values other than
	// the NotificationType constants are kept as-is.
	Type NotificationType `json:"type"`

	Title   string `json:"title"`
	Message string `json:"message"`

	// Timestamp is when the producer created the notification.
	Timestamp time.Time `json:"timestamp"`

	// Read indicates whether the notification has been acknowledged.
	Read bool `json:"read"`

	// Order is set when the notification refers to a specific order.
	Order *OrderSummary `json:"orderData,omitempty"`
}

// UnmarshalJSON decodes a notification record. Unknown fields are ignored.
func (n *Notification) UnmarshalJSON(data []byte) error {
	var w struct {
		Type      flexString `json:"type"`
		Title     flexString `json:"title"`
		Message   flexString `json:"message"`
		Timestamp flexTime   `json:"timestamp"`
		Read      flexBool   `json:"read"`
		OrderData *struct {
			TokenNumber  flexInt    `json:"tokenNumber"`
			CustomerName flexString `json:"customerName"`
			TotalAmount  flexMoney  `json:"totalAmount"`
		} `json:"orderData"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding notification: %w", err)
	}

	*n = Notification{
		ID:        n.ID,
		Type:      NotificationType(w.Type),
		Title:     string(w.Title),
		Message:   string(w.Message),
		Timestamp: time.Time(w.Timestamp),
		Read:      bool(w.Read),
	}
	if w.OrderData != nil {
		n.Order = &OrderSummary{
			TokenNumber:  int(w.OrderData.TokenNumber),
			CustomerName: string(w.OrderData.CustomerName),
			TotalAmount:  decimal.Decimal(w.OrderData.TotalAmount),
		}
	}
	return nil
}
