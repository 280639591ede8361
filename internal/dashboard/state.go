// Package dashboard holds the view state derived from the live feeds.
// It performs no I/O; the Bubble Tea model feeds it snapshots and acts on
// the toast candidates it returns.
package dashboard

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/nhle/order-dashboard/internal/model"
)

// Stats summarizes the full (unfiltered) order set.
type Stats struct {
	TotalOrders int
	Revenue     decimal.Decimal
	Pending     int
	Exported    int
}

// State is the dashboard's view state.
type State struct {
	orders        []model.Order
	notifications []model.Notification
	unread        int
	loading       bool

	// toasted holds the notification IDs already turned into toasts and
	// toastedStock the stock updates (key@updatedAt). Both are pruned to
	// what the latest snapshot still contains.
	toasted      map[string]bool
	toastedStock map[string]bool
}

// New returns an empty state that is waiting for the first orders snapshot.
func New() State {
	return State{loading: true}
}

// ApplyOrders replaces the orders with a fresh snapshot.
func (s *State) ApplyOrders(orders []model.Order) {
	s.orders = slices.Clone(orders)
	s.loading = false
}

// FailOrders records a failed orders subscription: no data, not loading.
func (s *State) FailOrders() {
	s.orders = nil
	s.loading = false
}

// ApplyNotifications replaces the notifications with a fresh snapshot,
// newest first, and recomputes the unread count. It returns the newest
// notification when it is an unread new order that has not been returned
// before, and nil otherwise.
func (s *State) ApplyNotifications(ns []model.Notification) *model.Notification {
	sorted := slices.Clone(ns)
	slices.SortStableFunc(sorted, func(a, b model.Notification) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	s.notifications = sorted

	s.unread = 0
	for _, n := range sorted {
		if !n.Read {
			s.unread++
		}
	}

	ids := make([]string, len(sorted))
	for i, n := range sorted {
		ids[i] = n.ID
	}
	s.toasted = prune(s.toasted, ids)

	if len(sorted) == 0 {
		return nil
	}
	newest := sorted[0]
	if newest.Read || newest.Type != model.NotificationNewOrder {
		return nil
	}
	if s.toasted[newest.ID] {
		return nil
	}
	s.toasted[newest.ID] = true
	return &newest
}

// ApplyStock inspects a stock snapshot. When the newest entry carries a
// stock update not seen before, it returns a synthesized stock_update
// notification describing it.
func (s *State) ApplyStock(entries []model.StockEntry) *model.Notification {
	var marks []string
	for _, e := range entries {
		if e.Update != nil {
			marks = append(marks, stockMark(e))
		}
	}
	s.toastedStock = prune(s.toastedStock, marks)

	if len(entries) == 0 {
		return nil
	}
	latest := entries[len(entries)-1]
	if latest.Update == nil {
		return nil
	}

	u := latest.Update
	mark := stockMark(latest)
	if s.toastedStock[mark] {
		return nil
	}
	s.toastedStock[mark] = true

	return &model.Notification{
		ID:        "stock:" + latest.ID,
		Type:      model.NotificationStockUpdate,
		Title:     fmt.Sprintf("Stock Updated - Order #%d", u.OrderTokenNumber),
		Message:   fmt.Sprintf("Items: %d, Value: ₹%s", u.ItemCount, u.TotalOrderValue.String()),
		Timestamp: u.UpdatedAt,
	}
}

func stockMark(e model.StockEntry) string {
	return e.ID + "@" + e.Update.UpdatedAt.UTC().String()
}

// prune keeps the members of seen that are still in current.
func prune(seen map[string]bool, current []string) map[string]bool {
	next := make(map[string]bool, len(seen))
	for _, k := range current {
		if seen[k] {
			next[k] = true
		}
	}
	return next
}

// Loading reports whether the first orders snapshot is still pending.
func (s State) Loading() bool {
	return s.loading
}

// Orders returns the raw orders in feed order.
func (s State) Orders() []model.Order {
	return s.orders
}

// Visible returns the orders selected and ordered by q.
func (s State) Visible(q Query) []model.Order {
	return q.Apply(s.orders)
}

// Find returns the order with the given record key.
func (s State) Find(id string) (model.Order, bool) {
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return model.Order{}, false
}

// Notifications returns every notification, newest first.
func (s State) Notifications() []model.Notification {
	return s.notifications
}

// Recent returns at most limit notifications, newest first.
func (s State) Recent(limit int) []model.Notification {
	if limit <= 0 || limit >= len(s.notifications) {
		return s.notifications
	}
	return s.notifications[:limit]
}

// UnreadCount returns the number of unread notifications in the latest
// notifications snapshot.
func (s State) UnreadCount() int {
	return s.unread
}

// Stats summarizes all orders regardless of the active query.
func (s State) Stats() Stats {
	st := Stats{TotalOrders: len(s.orders), Revenue: decimal.Zero}
	for _, o := range s.orders {
		st.Revenue = st.Revenue.Add(o.TotalAmount)
		if o.Status == model.StatusPending {
			st.Pending++
		}
		if o.PDFDownloaded {
			st.Exported++
		}
	}
	return st
}
