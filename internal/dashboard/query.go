package dashboard

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/nhle/order-dashboard/internal/model"
)

// StatusAll disables status filtering.
const StatusAll = "All"

// SortKey selects the ordering of the derived order list.
type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortOldest     SortKey = "oldest"
	SortTokenAsc   SortKey = "tokenAsc"
	SortTokenDesc  SortKey = "tokenDesc"
	SortAmountAsc  SortKey = "amountAsc"
	SortAmountDesc SortKey = "amountDesc"
)

// SortKeys lists the sort keys in the order the UI cycles through them.
var SortKeys = []SortKey{
	SortNewest,
	SortOldest,
	SortTokenDesc,
	SortTokenAsc,
	SortAmountDesc,
	SortAmountAsc,
}

// Label returns a human-readable name for the sort key.
func (k SortKey) Label() string {
	switch k {
	case SortNewest:
		return "Newest First"
	case SortOldest:
		return "Oldest First"
	case SortTokenDesc:
		return "Token No. (High to Low)"
	case SortTokenAsc:
		return "Token No. (Low to High)"
	case SortAmountDesc:
		return "Amount (High to Low)"
	case SortAmountAsc:
		return "Amount (Low to High)"
	default:
		return string(k)
	}
}

// StatusFilters lists the status filter values in cycle order.
func StatusFilters() []string {
	filters := []string{StatusAll}
	for _, s := range model.OrderStatuses {
		filters = append(filters, string(s))
	}
	return filters
}

// Query selects and orders the visible orders.
type Query struct {
	// Search is matched case-insensitively against customer, phone,
	// token number and city. Empty matches everything.
	Search string

	// Status is an order status or StatusAll. Empty behaves like StatusAll.
	Status string

	// Sort is the ordering. Unknown keys keep the feed order.
	Sort SortKey
}

// Matches reports whether o passes the search and status filters.
func (q Query) Matches(o model.Order) bool {
	if q.Status != "" && q.Status != StatusAll && string(o.Status) != q.Status {
		return false
	}
	if q.Search == "" {
		return true
	}

	term := strings.ToLower(q.Search)
	fields := []string{o.Customer, o.Phone, strconv.Itoa(o.TokenNumber), o.City}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Apply returns a new slice holding the matching orders in query order.
// Ties keep their relative input order.
func (q Query) Apply(orders []model.Order) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if q.Matches(o) {
			out = append(out, o)
		}
	}

	if less := comparator(q.Sort); less != nil {
		slices.SortStableFunc(out, less)
	}
	return out
}

func comparator(k SortKey) func(a, b model.Order) int {
	switch k {
	case SortNewest:
		return func(a, b model.Order) int { return b.OrderDate.Compare(a.OrderDate) }
	case SortOldest:
		return func(a, b model.Order) int { return a.OrderDate.Compare(b.OrderDate) }
	case SortTokenAsc:
		return func(a, b model.Order) int { return cmp.Compare(a.TokenNumber, b.TokenNumber) }
	case SortTokenDesc:
		return func(a, b model.Order) int { return cmp.Compare(b.TokenNumber, a.TokenNumber) }
	case SortAmountAsc:
		return func(a, b model.Order) int { return a.TotalAmount.Cmp(b.TotalAmount) }
	case SortAmountDesc:
		return func(a, b model.Order) int { return b.TotalAmount.Cmp(a.TotalAmount) }
	default:
		return nil
	}
}
