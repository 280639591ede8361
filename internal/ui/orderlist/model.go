// Package orderlist renders the filterable order table.
package orderlist

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/order-dashboard/internal/dashboard"
	"github.com/nhle/order-dashboard/internal/keys"
	"github.com/nhle/order-dashboard/internal/model"
	"github.com/nhle/order-dashboard/internal/theme"
)

// ExportRequestMsg asks for a receipt of the selected order.
type ExportRequestMsg struct {
	Order model.Order
}

// filterBarHeight is the number of lines above the table.
const filterBarHeight = 2

var columns = []table.Column{
	{Title: "Token", Width: 7},
	{Title: "Customer", Width: 20},
	{Title: "Phone", Width: 13},
	{Title: "City", Width: 12},
	{Title: "Amount", Width: 12},
	{Title: "Items", Width: 5},
	{Title: "Status", Width: 11},
	{Title: "PDF", Width: 4},
	{Title: "Date", Width: 16},
}

// Model is the order table with its search box and filter state.
type Model struct {
	keys      *keys.KeyMap
	table     table.Model
	search    textinput.Model
	spinner   spinner.Model
	searching bool
	loading   bool

	all      []model.Order
	visible  []model.Order
	query    dashboard.Query
	statusIx int
	sortIx   int

	width, height int
}

// New creates an empty order list.
func New(k *keys.KeyMap, width, height int) Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(theme.ColorWhite).
		Background(theme.ColorBlue).
		Bold(true)
	t.SetStyles(styles)

	ti := textinput.New()
	ti.Placeholder = "Search by name, phone, token, city..."
	ti.Prompt = "/ "
	ti.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		keys:    k,
		table:   t,
		search:  ti,
		spinner: sp,
		loading: true,
		query: dashboard.Query{
			Status: dashboard.StatusAll,
			Sort:   dashboard.SortKeys[0],
		},
	}
	m.SetSize(width, height)
	return m
}

// Init starts the loading spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetOrders replaces the full order set and re-derives the visible rows.
func (m *Model) SetOrders(orders []model.Order) {
	m.all = orders
	m.refresh()
}

// SetLoading toggles the loading indicator.
func (m *Model) SetLoading(loading bool) tea.Cmd {
	m.loading = loading
	if loading {
		return m.spinner.Tick
	}
	return nil
}

// Loading reports whether the loading indicator is shown.
func (m Model) Loading() bool {
	return m.loading
}

// Query returns the current filter and sort selection.
func (m Model) Query() dashboard.Query {
	return m.query
}

// Visible returns the rows currently shown.
func (m Model) Visible() []model.Order {
	return m.visible
}

// Searching reports whether the search box has focus.
func (m Model) Searching() bool {
	return m.searching
}

// Selected returns the order under the cursor.
func (m Model) Selected() (model.Order, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return model.Order{}, false
	}
	return m.visible[i], true
}

// SetStatus selects a status filter by value.
func (m *Model) SetStatus(status string) {
	for i, s := range dashboard.StatusFilters() {
		if s == status {
			m.statusIx = i
			m.query.Status = s
			m.refresh()
			return
		}
	}
}

// ClearFilters resets search, status and sort.
func (m *Model) ClearFilters() {
	m.search.Reset()
	m.statusIx, m.sortIx = 0, 0
	m.query = dashboard.Query{Status: dashboard.StatusAll, Sort: dashboard.SortKeys[0]}
	m.refresh()
}

// Update handles list keys. Global keys are handled by the parent unless
// the search box has focus.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Search):
			m.searching = true
			return m, m.search.Focus()
		case key.Matches(msg, m.keys.CycleStatus):
			filters := dashboard.StatusFilters()
			m.statusIx = (m.statusIx + 1) % len(filters)
			m.query.Status = filters[m.statusIx]
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.CycleSort):
			m.sortIx = (m.sortIx + 1) % len(dashboard.SortKeys)
			m.query.Sort = dashboard.SortKeys[m.sortIx]
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Export):
			if o, ok := m.Selected(); ok {
				return m, func() tea.Msg { return ExportRequestMsg{Order: o} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != m.query.Search {
		m.query.Search = v
		m.refresh()
	}
	return m, cmd
}

// refresh re-applies the query and rebuilds the table rows, keeping the
// cursor on the same order when it is still visible.
func (m *Model) refresh() {
	var selectedID string
	if o, ok := m.Selected(); ok {
		selectedID = o.ID
	}

	m.visible = m.query.Apply(m.all)
	rows := make([]table.Row, len(m.visible))
	cursor := 0
	for i, o := range m.visible {
		rows[i] = row(o)
		if o.ID == selectedID {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	m.table.SetCursor(cursor)
}

func row(o model.Order) table.Row {
	token := "N/A"
	if o.TokenNumber != 0 {
		token = "#" + strconv.Itoa(o.TokenNumber)
	}
	date := "N/A"
	if !o.OrderDate.IsZero() {
		date = o.OrderDate.Local().Format("02/01/2006 15:04")
	}
	pdf := "No"
	if o.PDFDownloaded {
		pdf = "Yes"
	}
	return table.Row{
		token,
		orNA(o.Customer),
		orNA(o.Phone),
		orNA(o.City),
		"₹" + o.TotalAmount.StringFixed(2),
		strconv.Itoa(o.ItemCount()),
		orNA(string(o.Status)),
		pdf,
		date,
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// View renders the filter bar and the table.
func (m Model) View() string {
	bar := m.filterBar()

	var body string
	switch {
	case m.loading:
		body = lipgloss.NewStyle().Padding(1, 2).
			Render(m.spinner.View() + " Loading orders...")
	case len(m.visible) == 0:
		body = lipgloss.NewStyle().Padding(1, 2).Foreground(theme.ColorGray).
			Render("No orders found")
	default:
		body = m.table.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, bar, body)
}

func (m Model) filterBar() string {
	search := m.search.View()
	if !m.searching && m.query.Search == "" {
		search = theme.DimmedStyle.Render("/ search")
	}
	filters := fmt.Sprintf("Status: %s  Sort: %s  (%d of %d)",
		m.query.Status, m.query.Sort.Label(), len(m.visible), len(m.all))
	return lipgloss.JoinVertical(lipgloss.Left,
		" "+search,
		" "+theme.HelpStyle.Render(filters),
	)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.search.Width = width - 6
	m.table.SetWidth(width)
	h := height - filterBarHeight
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
}
