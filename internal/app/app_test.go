package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/order-dashboard/internal/feed"
	"github.com/nhle/order-dashboard/internal/install"
	"github.com/nhle/order-dashboard/internal/model"
	"github.com/nhle/order-dashboard/internal/receipt"
	"github.com/nhle/order-dashboard/internal/toast"
	installview "github.com/nhle/order-dashboard/internal/ui/install"
	"github.com/nhle/order-dashboard/internal/ui/orderlist"
	"github.com/nhle/order-dashboard/tests/testutil"
)

// idleSource accepts subscriptions and never sends anything.
type idleSource struct{}

func (idleSource) Stream(ctx context.Context, _ feed.Collection, _ func(feed.Event) error) error {
	<-ctx.Done()
	return nil
}

func (idleSource) Fetch(context.Context, feed.Collection) (json.RawMessage, error) {
	return nil, errors.New("offline")
}

// seededSource sends one put per collection and then stays open.
type seededSource struct {
	puts map[feed.Collection]string
}

func (s seededSource) Stream(ctx context.Context, c feed.Collection, fn func(feed.Event) error) error {
	if raw, ok := s.puts[c]; ok {
		if err := fn(feed.Event{Name: "put", Path: "/", Data: json.RawMessage(raw)}); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return nil
}

func (seededSource) Fetch(context.Context, feed.Collection) (json.RawMessage, error) {
	return nil, errors.New("offline")
}

type countingAlerter struct{ n int }

func (a *countingAlerter) Alert() error {
	a.n++
	return nil
}

type fakePlatform struct {
	available bool
	installs  int
	err       error
}

func (p *fakePlatform) Available() bool { return p.available }

func (p *fakePlatform) Install() (string, error) {
	p.installs++
	return "/tmp/orderdash.desktop", p.err
}

func testConfig(t *testing.T) *model.AppConfig {
	t.Helper()
	cfg := model.DefaultAppConfig()
	cfg.Firebase.DatabaseURL = "https://shop.example.com"
	cfg.Receipt.Dir = t.TempDir()
	return cfg
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	if opts.NewSinks == nil {
		opts.NewSinks = func(cfg *model.AppConfig) []receipt.Sink {
			return []receipt.Sink{receipt.DirSink{Dir: cfg.Receipt.Dir}}
		}
	}
	if opts.NewSource == nil {
		opts.NewSource = func(*model.AppConfig) (feed.Source, error) { return idleSource{}, nil }
	}
	m := New(testConfig(t), opts)
	m = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 50})
	return m
}

// connected returns m with a live subscriber attached.
func connected(t *testing.T, m Model) Model {
	t.Helper()
	sub := feed.NewSubscriber(idleSource{}, nil, nil)
	m = update(t, m, feedReadyMsg{subscriber: sub})
	t.Cleanup(sub.Stop)
	require.True(t, sub.Active())
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleOrders() []model.Order {
	return []model.Order{
		{ID: "k1", TokenNumber: 1, Customer: "Ravi", Status: model.StatusPending,
			TotalAmount: decimal.NewFromInt(100), OrderDate: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "k2", TokenNumber: 2, Customer: "Meena", Status: model.StatusDelivered,
			TotalAmount: decimal.NewFromInt(250), OrderDate: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)},
	}
}

func newOrderNotification(id string, at time.Time) model.Notification {
	return model.Notification{
		ID:        id,
		Type:      model.NotificationNewOrder,
		Title:     "New Order",
		Message:   "Order #7 from Ravi",
		Timestamp: at,
	}
}

func TestInitialStateIsLoading(t *testing.T) {
	m := newTestModel(t, Options{})

	assert.True(t, m.state.Loading())
	assert.True(t, m.orderList.Loading())
	assert.Equal(t, "not connected", m.feedStatus())
	assert.Contains(t, m.View(), "Customer Orders")
}

func TestInitWithoutDatabaseOpensSetup(t *testing.T) {
	cfg := model.DefaultAppConfig()
	m := New(cfg, Options{NewSinks: func(*model.AppConfig) []receipt.Sink { return nil }})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = update(t, m, openSetupMsg{})
	assert.Equal(t, ViewSetup, m.currentView)
}

func TestConnectReportsSourceError(t *testing.T) {
	m := newTestModel(t, Options{
		NewSource: func(*model.AppConfig) (feed.Source, error) { return nil, errors.New("bad url") },
	})

	msg := m.connect(m.cfg)()
	ready, ok := msg.(feedReadyMsg)
	require.True(t, ok)
	require.Error(t, ready.err)

	m = update(t, m, ready)
	assert.False(t, m.state.Loading())
	assert.Contains(t, m.statusMsg, "bad url")
}

func TestOrdersUpdatePopulatesList(t *testing.T) {
	m := connected(t, newTestModel(t, Options{}))

	m, cmd := updateCmd(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionOrders, Orders: sampleOrders()})
	assert.NotNil(t, cmd, "the wait command must be re-issued")

	assert.False(t, m.state.Loading())
	assert.False(t, m.orderList.Loading())
	assert.Len(t, m.orderList.Visible(), 2)
	assert.Equal(t, "live", m.feedStatus())
	assert.Contains(t, m.statsLine(), "Orders: 2")
	assert.Contains(t, m.statsLine(), "₹350.00")
	assert.Contains(t, m.statsLine(), "Pending: 1")
}

func TestFailedOrdersShowsEmptyListAndError(t *testing.T) {
	m := connected(t, newTestModel(t, Options{}))

	m = update(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionOrders, Err: errors.New("permission denied")})

	assert.False(t, m.state.Loading())
	assert.Empty(t, m.orderList.Visible())
	assert.Equal(t, "⚠ customerOrders: error", m.feedStatus())

	m = update(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionOrders, Orders: sampleOrders()})
	assert.Equal(t, "live", m.feedStatus())
}

func TestNewOrderNotificationRaisesOneToast(t *testing.T) {
	alerter := &countingAlerter{}
	m := connected(t, newTestModel(t, Options{Alerter: alerter}))
	n := newOrderNotification("n1", time.Now())

	m = update(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionNotifications, Notifications: []model.Notification{n}})
	require.Len(t, m.toasts.Visible(), 1)
	assert.Zero(t, alerter.n, "the alert is left to the returned command")
	assert.Equal(t, 1, m.state.UnreadCount())
	assert.Contains(t, m.View(), "[1 new]")

	// Same snapshot again: no second toast.
	m = update(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionNotifications, Notifications: []model.Notification{n}})
	assert.Len(t, m.toasts.Visible(), 1)
}

func TestToastExpiresAndCanBeDismissed(t *testing.T) {
	m := connected(t, newTestModel(t, Options{}))
	base := time.Now()

	m = update(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionNotifications,
		Notifications: []model.Notification{newOrderNotification("n1", base)}})
	m = update(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionNotifications,
		Notifications: []model.Notification{
			newOrderNotification("n1", base),
			newOrderNotification("n2", base.Add(time.Minute)),
		}})
	visible := m.toasts.Visible()
	require.Len(t, visible, 2)

	m = update(t, m, toast.ExpiredMsg{ID: visible[0].ID})
	require.Len(t, m.toasts.Visible(), 1)
	assert.Equal(t, visible[1].ID, m.toasts.Visible()[0].ID)

	m = update(t, m, keyMsg("x"))
	assert.Empty(t, m.toasts.Visible())

	// A late timer for a dismissed toast is harmless.
	m = update(t, m, toast.ExpiredMsg{ID: visible[1].ID})
	assert.Empty(t, m.toasts.Visible())
}

func TestStockUpdateRaisesToast(t *testing.T) {
	m := connected(t, newTestModel(t, Options{}))
	entry := model.StockEntry{ID: "s1", Update: &model.StockUpdate{
		OrderTokenNumber: 7,
		ItemCount:        3,
		TotalOrderValue:  decimal.NewFromInt(450),
		UpdatedAt:        time.Now(),
	}}

	m = update(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionStock, Stock: []model.StockEntry{entry}})
	require.Len(t, m.toasts.Visible(), 1)
	assert.Equal(t, "Stock Updated - Order #7", m.toasts.Visible()[0].Notification.Title)
}

func TestUpdatesAfterQuitAreIgnored(t *testing.T) {
	m := connected(t, newTestModel(t, Options{}))

	m, cmd := updateCmd(t, m, keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, m.subscriber.Active())

	m, cmd = updateCmd(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionOrders, Orders: sampleOrders()})
	assert.Nil(t, cmd)
	assert.Empty(t, m.orderList.Visible())
}

func TestUpdatesWithoutSubscriberAreIgnored(t *testing.T) {
	m := newTestModel(t, Options{})

	m = update(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionOrders, Orders: sampleOrders()})
	assert.True(t, m.state.Loading())
}

func TestExportWritesReceiptAndRecordsHistory(t *testing.T) {
	st := testutil.NewTestStore(t)
	m := connected(t, newTestModel(t, Options{Store: st}))
	m = update(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionOrders, Orders: sampleOrders()})

	o, ok := m.orderList.Selected()
	require.True(t, ok)

	m, cmd := updateCmd(t, m, orderlist.ExportRequestMsg{Order: o})
	require.NotNil(t, cmd)

	done := runExport(t, m, o)
	require.NoError(t, done.err)
	require.Len(t, done.result.Locations, 1)

	_, err := os.Stat(filepath.Join(m.cfg.Receipt.Dir, receipt.FileName(o)))
	require.NoError(t, err)

	n, err := st.CountExports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	m = update(t, m, done)
	assert.True(t, strings.HasPrefix(m.statusMsg, "Saved "))
}

// runExport performs the export the model would schedule for o.
func runExport(t *testing.T, m Model, o model.Order) exportDoneMsg {
	t.Helper()
	res, err := m.exporter.Export(context.Background(), o)
	return exportDoneMsg{result: res, err: err}
}

func TestExportCommandByToken(t *testing.T) {
	m := connected(t, newTestModel(t, Options{}))
	m = update(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionOrders, Orders: sampleOrders()})

	next, cmd := m.executeCommand(commandMsg("export", "#2"))
	require.NotNil(t, cmd)
	assert.Contains(t, next.(Model).statusMsg, "order #2")

	next, _ = m.executeCommand(commandMsg("export", "99"))
	assert.Equal(t, "Order #99 not found", next.(Model).statusMsg)
}

func TestStatusCommandFiltersList(t *testing.T) {
	m := connected(t, newTestModel(t, Options{}))
	m = update(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionOrders, Orders: sampleOrders()})

	next, _ := m.executeCommand(commandMsg("status", "delivered"))
	m = next.(Model)
	require.Len(t, m.orderList.Visible(), 1)
	assert.Equal(t, 2, m.orderList.Visible()[0].TokenNumber)

	next, _ = m.executeCommand(commandMsg("clear"))
	assert.Len(t, next.(Model).orderList.Visible(), 2)
}

func TestNotificationsPanelToggle(t *testing.T) {
	m := connected(t, newTestModel(t, Options{}))
	m = update(t, m, keyMsg("n"))
	assert.True(t, m.showNotifications)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showNotifications)
}

func TestInstallFlowAccepted(t *testing.T) {
	st := testutil.NewTestStore(t)
	platform := &fakePlatform{available: true}
	m := newTestModel(t, Options{Store: st, Platform: platform})

	m = update(t, m, m.loadInstall()())
	require.NotNil(t, m.install)
	assert.True(t, m.install.CanInstall())

	m = update(t, m, keyMsg("i"))
	assert.Equal(t, ViewInstallPrompt, m.currentView)
	assert.True(t, m.install.Installing())

	m, cmd := updateCmd(t, m, installview.OutcomeMsg{Accepted: true})
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	assert.Equal(t, 1, platform.installs)
	assert.True(t, m.install.Installed())
	assert.False(t, m.install.CanInstall())

	installed, err := st.GetFlag(context.Background(), install.FlagKey)
	require.NoError(t, err)
	assert.True(t, installed)
}

func TestInstallFlowRejected(t *testing.T) {
	st := testutil.NewTestStore(t)
	platform := &fakePlatform{available: true}
	m := newTestModel(t, Options{Store: st, Platform: platform})
	m = update(t, m, m.loadInstall()())

	m = update(t, m, keyMsg("i"))
	m = update(t, m, installview.OutcomeMsg{Accepted: false})

	assert.Equal(t, ViewList, m.currentView)
	assert.Zero(t, platform.installs)
	assert.False(t, m.install.Installed())
	assert.False(t, m.install.Available())

	// Without a pending prompt the guide is shown instead.
	m = update(t, m, keyMsg("i"))
	assert.Equal(t, ViewInstallGuide, m.currentView)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, m.currentView)
	assert.False(t, m.install.ShowGuide())
}

func TestSetupSaveReconnects(t *testing.T) {
	var saved *model.AppConfig
	m := connected(t, newTestModel(t, Options{
		SaveConfig: func(_ string, cfg *model.AppConfig) error {
			saved = cfg
			return nil
		},
		SaveSecret: func(string, string) error { return nil },
	}))
	old := m.subscriber
	m = update(t, m, feed.UpdateMsg{From: m.subscriber, Collection: feed.CollectionOrders, Orders: sampleOrders()})

	cfg := *m.cfg
	cfg.Firebase.DatabaseURL = "https://other.example.com"
	_, cmd := updateCmd(t, m, setupDone(&cfg))
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, configSavedMsg{}, msg)
	require.NotNil(t, saved)

	m, cmd = updateCmd(t, m, msg)
	require.NotNil(t, cmd)
	assert.False(t, old.Active())
	assert.Nil(t, m.subscriber)
	assert.True(t, m.state.Loading())
	assert.Empty(t, m.orderList.Visible())
	assert.Equal(t, "https://other.example.com", m.cfg.Firebase.DatabaseURL)
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t, Options{})
	m = update(t, m, keyMsg("?"))
	assert.Equal(t, ViewHelp, m.currentView)
	m = update(t, m, keyMsg("?"))
	assert.Equal(t, ViewList, m.currentView)
}

func TestReconnectDropsUpdatesFromReleasedFeed(t *testing.T) {
	m := newTestModel(t, Options{
		SaveConfig: func(string, *model.AppConfig) error { return nil },
		SaveSecret: func(string, string) error { return nil },
	})
	old := feed.NewSubscriber(seededSource{puts: map[feed.Collection]string{
		feed.CollectionOrders: `{"old1":{"tokenNumber":99,"customer":"OldShop"}}`,
	}}, nil, nil)
	m, pending := updateCmd(t, m, feedReadyMsg{subscriber: old})
	require.NotNil(t, pending)
	t.Cleanup(old.Stop)

	cfg := *m.cfg
	cfg.Firebase.DatabaseURL = "https://other.example.com"
	m = update(t, m, configSavedMsg{cfg: &cfg})
	require.False(t, old.Active())

	fresh := feed.NewSubscriber(idleSource{}, nil, nil)
	m = update(t, m, feedReadyMsg{subscriber: fresh})
	t.Cleanup(fresh.Stop)

	// The wait issued for the old feed resolves only now.
	if msg := pending(); msg != nil {
		m = update(t, m, msg)
	}
	assert.Empty(t, m.orderList.Visible())
	assert.True(t, m.state.Loading())

	// A message tagged with the old feed is dropped even when it is
	// delivered directly.
	m = update(t, m, feed.UpdateMsg{From: old, Collection: feed.CollectionOrders, Orders: sampleOrders()})
	assert.Empty(t, m.orderList.Visible())
}
