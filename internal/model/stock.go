package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StockUpdate describes the inventory movement caused by one order.
type StockUpdate struct {
	OrderTokenNumber int
	ItemCount        int
	TotalOrderValue  decimal.Decimal
	UpdatedAt        time.Time
}

// StockEntry is a record from the stock collection. Only entries that
// carry a stock update are of interest to the dashboard.
type StockEntry struct {
	ID     string
	Update *StockUpdate
}

// UnmarshalJSON decodes a stock record, keeping only the stockUpdate payload.
func (s *StockEntry) UnmarshalJSON(data []byte) error {
	var w struct {
		StockUpdate *struct {
			OrderTokenNumber flexInt   `json:"orderTokenNumber"`
			Items            flexCount `json:"items"`
			TotalOrderValue  flexMoney `json:"totalOrderValue"`
			UpdatedAt        flexTime  `json:"updatedAt"`
		} `json:"stockUpdate"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding stock entry: %w", err)
	}

	*s = StockEntry{ID: s.ID}
	if w.StockUpdate != nil {
		s.Update = &StockUpdate{
			OrderTokenNumber: int(w.StockUpdate.OrderTokenNumber),
			ItemCount:        int(w.StockUpdate.Items),
			TotalOrderValue:  decimal.Decimal(w.StockUpdate.TotalOrderValue),
			UpdatedAt:        time.Time(w.StockUpdate.UpdatedAt),
		}
	}
	return nil
}
