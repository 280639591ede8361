package orderlist

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/order-dashboard/internal/dashboard"
	"github.com/nhle/order-dashboard/internal/keys"
	"github.com/nhle/order-dashboard/internal/model"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleOrders() []model.Order {
	base := time.Date(2024, 10, 1, 10, 0, 0, 0, time.UTC)
	return []model.Order{
		{ID: "a", TokenNumber: 1, Customer: "Priya", City: "Madurai", Status: model.StatusPending,
			TotalAmount: decimal.NewFromInt(100), OrderDate: base},
		{ID: "b", TokenNumber: 2, Customer: "Ravi", City: "Chennai", Status: model.StatusDelivered,
			TotalAmount: decimal.NewFromInt(300), OrderDate: base.Add(time.Hour)},
		{ID: "c", TokenNumber: 3, Customer: "Kumar", City: "Madurai", Status: model.StatusPending,
			TotalAmount: decimal.NewFromInt(200), OrderDate: base.Add(2 * time.Hour)},
	}
}

func newList(t *testing.T) Model {
	t.Helper()
	m := New(keys.DefaultKeyMap(), 120, 30)
	m.SetLoading(false)
	m.SetOrders(sampleOrders())
	return m
}

func ids(orders []model.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestDefaultsToNewestFirst(t *testing.T) {
	m := newList(t)
	assert.Equal(t, []string{"c", "b", "a"}, ids(m.Visible()))
	o, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "c", o.ID)
}

func TestCycleStatusFilter(t *testing.T) {
	m := newList(t)
	m, _ = m.Update(runes("s"))
	assert.Equal(t, string(model.StatusPending), m.Query().Status)
	assert.Equal(t, []string{"c", "a"}, ids(m.Visible()))
}

func TestCycleSort(t *testing.T) {
	m := newList(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, dashboard.SortOldest, m.Query().Sort)
	assert.Equal(t, []string{"a", "b", "c"}, ids(m.Visible()))
}

func TestSearchFiltersWhileTyping(t *testing.T) {
	m := newList(t)
	m, _ = m.Update(runes("/"))
	require.True(t, m.Searching())

	for _, r := range "madurai" {
		m, _ = m.Update(runes(string(r)))
	}
	assert.Equal(t, "madurai", m.Query().Search)
	assert.Equal(t, []string{"c", "a"}, ids(m.Visible()))

	// Keys that are global elsewhere are typed into the box while searching.
	m, _ = m.Update(runes("s"))
	assert.Empty(t, m.Visible())
	assert.Equal(t, dashboard.StatusAll, m.Query().Status)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Searching())
	assert.Equal(t, "madurais", m.Query().Search)
}

func TestExportEmitsSelectedOrder(t *testing.T) {
	m := newList(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(ExportRequestMsg)
	require.True(t, ok)
	assert.Equal(t, "c", msg.Order.ID)
}

func TestExportWithNoRows(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 30)
	m.SetLoading(false)
	_, cmd := m.Update(runes("e"))
	assert.Nil(t, cmd)
}

func TestCursorFollowsOrderAcrossUpdates(t *testing.T) {
	m := newList(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	o, _ := m.Selected()
	require.Equal(t, "b", o.ID)

	orders := sampleOrders()
	orders = append(orders, model.Order{ID: "d", TokenNumber: 4, OrderDate: time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC)})
	m.SetOrders(orders)

	o, _ = m.Selected()
	assert.Equal(t, "b", o.ID)
}

func TestClearFilters(t *testing.T) {
	m := newList(t)
	m.SetStatus(string(model.StatusDelivered))
	assert.Len(t, m.Visible(), 1)
	m.ClearFilters()
	assert.Len(t, m.Visible(), 3)
	assert.Equal(t, dashboard.StatusAll, m.Query().Status)
}

func TestViewStates(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 30)
	assert.Contains(t, m.View(), "Loading orders")

	m.SetLoading(false)
	assert.Contains(t, m.View(), "No orders found")

	m.SetOrders(sampleOrders())
	view := m.View()
	assert.Contains(t, view, "Priya")
	assert.Contains(t, view, "(3 of 3)")
}

func TestRowDateUsesLocalZone(t *testing.T) {
	prev := time.Local
	time.Local = time.FixedZone("IST", 5*60*60+30*60)
	t.Cleanup(func() { time.Local = prev })

	r := row(model.Order{ID: "x", OrderDate: time.Date(2024, 10, 3, 20, 0, 0, 0, time.UTC)})
	assert.Equal(t, "04/10/2024 01:30", r[len(r)-1])
}
