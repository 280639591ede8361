package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/order-dashboard/internal/credential"
	"github.com/nhle/order-dashboard/internal/dashboard"
	"github.com/nhle/order-dashboard/internal/feed"
	"github.com/nhle/order-dashboard/internal/install"
	"github.com/nhle/order-dashboard/internal/keys"
	"github.com/nhle/order-dashboard/internal/metrics"
	"github.com/nhle/order-dashboard/internal/model"
	"github.com/nhle/order-dashboard/internal/receipt"
	"github.com/nhle/order-dashboard/internal/store"
	"github.com/nhle/order-dashboard/internal/toast"
	"github.com/nhle/order-dashboard/internal/ui"
	"github.com/nhle/order-dashboard/internal/ui/command"
	helpview "github.com/nhle/order-dashboard/internal/ui/help"
	installview "github.com/nhle/order-dashboard/internal/ui/install"
	"github.com/nhle/order-dashboard/internal/ui/notifications"
	"github.com/nhle/order-dashboard/internal/ui/orderlist"
	"github.com/nhle/order-dashboard/internal/ui/setup"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewHelp
	ViewCommand
	ViewSetup
	ViewInstallPrompt
	ViewInstallGuide
)

const (
	refreshDelay  = time.Second
	exportTimeout = time.Minute
	statusTTL     = 6 * time.Second
)

// Options carries the collaborators of the root model.
type Options struct {
	ConfigPath string
	Store      store.Store
	Metrics    *metrics.Recorder
	Alerter    toast.Alerter
	Platform   install.Platform

	// NewSource and NewSinks default to the keyring-backed builders.
	NewSource func(*model.AppConfig) (feed.Source, error)
	NewSinks  func(*model.AppConfig) []receipt.Sink

	// SaveConfig and SaveSecret default to the viper file and the keyring.
	SaveConfig func(path string, cfg *model.AppConfig) error
	SaveSecret func(key, value string) error
}

// Model is the root Bubble Tea model. All dashboard state is owned here and
// changed only in Update.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	opts         Options
	cfg          *model.AppConfig
	keys         *keys.KeyMap

	state      dashboard.State
	toasts     toast.Manager
	subscriber *feed.Subscriber
	exporter   *receipt.Exporter
	install    *install.State

	orderList     orderlist.Model
	helpView      helpview.Model
	commandView   command.Model
	setupView     setup.Model
	installPrompt installview.Prompt

	feedErrors        map[feed.Collection]error
	showNotifications bool
	refreshing        bool
	statusMsg         string
	statusSeq         int
	ready             bool
}

// feedReadyMsg carries a subscriber built from the current configuration.
type feedReadyMsg struct {
	subscriber *feed.Subscriber
	err        error
}

// installLoadedMsg carries the install state read at startup.
type installLoadedMsg struct {
	state     *install.State
	available bool
	err       error
}

type installDoneMsg struct {
	path string
	err  error
}

type exportDoneMsg struct {
	result receipt.Result
	err    error
}

type configSavedMsg struct {
	cfg *model.AppConfig
	err error
}

type refreshDoneMsg struct{}

type clearStatusMsg struct{ seq int }

// New creates the root model.
func New(cfg *model.AppConfig, opts Options) Model {
	if opts.NewSource == nil {
		opts.NewSource = NewSource
	}
	if opts.NewSinks == nil {
		opts.NewSinks = NewSinks
	}
	if opts.SaveConfig == nil {
		opts.SaveConfig = model.SaveConfig
	}
	if opts.SaveSecret == nil {
		opts.SaveSecret = credential.Set
	}

	k := keys.DefaultKeyMap()
	toasts := toast.New(cfg.Display.ToastTimeout(), opts.Alerter)
	if opts.Metrics != nil {
		toasts.SetObserver(opts.Metrics)
	}

	m := Model{
		currentView: ViewList,
		opts:        opts,
		cfg:         cfg,
		keys:        k,
		state:       dashboard.New(),
		toasts:      toasts,
		orderList:   orderlist.New(k, 80, 20),
		helpView:    helpview.New(k, 80, 20),
		commandView: command.New(80, 20),
		setupView:   setup.New(cfg, 80, 20),
		feedErrors:  make(map[feed.Collection]error),
	}
	m.exporter = m.buildExporter(cfg)
	return m
}

func (m Model) buildExporter(cfg *model.AppConfig) *receipt.Exporter {
	var rec receipt.Recorder
	if m.opts.Store != nil {
		rec = m.opts.Store
	}
	var obs receipt.Observer
	if m.opts.Metrics != nil {
		obs = m.opts.Metrics
	}
	return receipt.NewExporter(cfg.Receipt.Business, rec, obs, m.opts.NewSinks(cfg)...)
}

// Init connects the feed, or opens setup when no database is configured,
// and loads the install state.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.orderList.Init(), m.loadInstall()}
	if m.cfg.Firebase.DatabaseURL == "" {
		cmds = append(cmds, func() tea.Msg { return openSetupMsg{} })
	} else {
		cmds = append(cmds, m.connect(m.cfg))
	}
	return tea.Batch(cmds...)
}

type openSetupMsg struct{}

// connect builds a subscriber for cfg off the UI goroutine.
func (m Model) connect(cfg *model.AppConfig) tea.Cmd {
	newSource := m.opts.NewSource
	var cache feed.SnapshotCache
	if m.opts.Store != nil {
		cache = m.opts.Store
	}
	var obs feed.Observer
	if m.opts.Metrics != nil {
		obs = m.opts.Metrics
	}
	return func() tea.Msg {
		src, err := newSource(cfg)
		if err != nil {
			return feedReadyMsg{err: err}
		}
		return feedReadyMsg{subscriber: feed.NewSubscriber(src, cache, obs)}
	}
}

func (m Model) loadInstall() tea.Cmd {
	st := m.opts.Store
	platform := m.opts.Platform
	return func() tea.Msg {
		if st == nil || platform == nil {
			return installLoadedMsg{}
		}
		state, err := install.Load(context.Background(), st)
		if err != nil {
			return installLoadedMsg{err: err}
		}
		return installLoadedMsg{state: state, available: platform.Available()}
	}
}

// Stop releases the feed subscriptions. It is safe to call more than once.
func (m Model) Stop() {
	if m.subscriber != nil {
		m.subscriber.Stop()
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.orderList.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.setupView.SetSize(w, h)
		return m, nil

	case feedReadyMsg:
		if msg.err != nil {
			log.Printf("feed: %v", msg.err)
			m.state.FailOrders()
			m.orderList.SetLoading(false)
			return m.setStatus("Feed unavailable: " + msg.err.Error())
		}
		m.subscriber = msg.subscriber
		return m, m.subscriber.Start()

	case feed.UpdateMsg:
		return m.handleUpdate(msg)

	case toast.ExpiredMsg:
		m.toasts.Update(msg)
		return m, nil

	case installLoadedMsg:
		if msg.err != nil {
			log.Printf("install: %v", msg.err)
			return m, nil
		}
		m.install = msg.state
		if m.install != nil && msg.available {
			m.install.PromptAvailable()
		}
		return m, nil

	case installview.OutcomeMsg:
		m.currentView = ViewList
		if !msg.Accepted {
			_ = m.install.Outcome(context.Background(), false)
			return m, nil
		}
		return m, m.runInstall()

	case installDoneMsg:
		if msg.err != nil {
			_ = m.install.Outcome(context.Background(), false)
			return m.setStatus("Install failed: " + msg.err.Error())
		}
		if err := m.install.Outcome(context.Background(), true); err != nil {
			log.Printf("install: %v", err)
		}
		return m.setStatus("Installed launcher at " + msg.path)

	case orderlist.ExportRequestMsg:
		return m.startExport(msg.Order)

	case exportDoneMsg:
		if msg.err != nil && len(msg.result.Locations) == 0 {
			return m.setStatus("Export failed: " + msg.err.Error())
		}
		text := "Saved " + strings.Join(msg.result.Locations, ", ")
		if msg.err != nil {
			text += " (" + msg.err.Error() + ")"
		}
		return m.setStatus(text)

	case refreshDoneMsg:
		m.refreshing = false
		m.orderList.SetLoading(m.state.Loading())
		return m, nil

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
		}
		return m, nil

	case openSetupMsg:
		return m.openSetup()

	case setup.DoneMsg:
		m.currentView = ViewList
		return m, m.saveSetup(msg)

	case setup.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case configSavedMsg:
		if msg.err != nil {
			return m.setStatus("Saving settings failed: " + msg.err.Error())
		}
		return m.reconnect(msg.cfg)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(msg)

	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleUpdate folds one collection snapshot into the dashboard state.
// Updates from a released or replaced subscriber are ignored.
func (m Model) handleUpdate(msg feed.UpdateMsg) (tea.Model, tea.Cmd) {
	if m.subscriber == nil || msg.From != m.subscriber || !m.subscriber.Active() {
		return m, nil
	}
	wait := m.subscriber.WaitForNext()

	if msg.Err != nil {
		m.feedErrors[msg.Collection] = msg.Err
	} else {
		delete(m.feedErrors, msg.Collection)
	}

	var toastCmd tea.Cmd
	switch msg.Collection {
	case feed.CollectionOrders:
		if msg.Err != nil {
			m.state.FailOrders()
		} else {
			m.state.ApplyOrders(msg.Orders)
		}
		m.orderList.SetOrders(m.state.Orders())
		if !m.refreshing {
			m.orderList.SetLoading(m.state.Loading())
		}

	case feed.CollectionNotifications:
		if n := m.state.ApplyNotifications(msg.Notifications); n != nil {
			toastCmd = m.toasts.Push(*n)
		}

	case feed.CollectionStock:
		if n := m.state.ApplyStock(msg.Stock); n != nil {
			toastCmd = m.toasts.Push(*n)
		}
	}

	return m, tea.Batch(wait, toastCmd)
}

// handleKey processes global keys. It reports false when the key should go
// to the active view instead.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.Type == tea.KeyCtrlC {
		m.Stop()
		return m, tea.Quit, true
	}

	switch m.currentView {
	case ViewSetup, ViewInstallPrompt, ViewCommand:
		if msg.Type == tea.KeyEsc {
			if m.currentView == ViewInstallPrompt {
				_ = m.install.Outcome(context.Background(), false)
			}
			m.currentView = ViewList
			return m, nil, true
		}
		return m, nil, false
	case ViewHelp, ViewInstallGuide:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Help) {
			if m.currentView == ViewInstallGuide && m.install != nil {
				m.install.HideGuide()
			}
			m.currentView = ViewList
			return m, nil, true
		}
		if key.Matches(msg, m.keys.Quit) {
			m.Stop()
			return m, tea.Quit, true
		}
		return m, nil, true
	}

	if m.orderList.Searching() {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Stop()
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case key.Matches(msg, m.keys.Notifications):
		m.showNotifications = !m.showNotifications
		return m, nil, true

	case key.Matches(msg, m.keys.DismissToast):
		m.toasts.DismissOldest()
		return m, nil, true

	case key.Matches(msg, m.keys.Refresh):
		next, cmd := m.refresh()
		return next, cmd, true

	case key.Matches(msg, m.keys.Install):
		next, cmd := m.startInstall()
		return next, cmd, true

	case key.Matches(msg, m.keys.Setup):
		next, cmd := m.openSetup()
		return next, cmd, true

	case key.Matches(msg, m.keys.Back):
		if m.showNotifications {
			m.showNotifications = false
			return m, nil, true
		}
	}

	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.orderList, cmd = m.orderList.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSetup:
		m.setupView, cmd = m.setupView.Update(msg)
	case ViewInstallPrompt:
		m.installPrompt, cmd = m.installPrompt.Update(msg)
	}

	return m, cmd
}

func (m Model) refresh() (tea.Model, tea.Cmd) {
	m.refreshing = true
	cmd := m.orderList.SetLoading(true)
	return m, tea.Batch(cmd, tea.Tick(refreshDelay, func(time.Time) tea.Msg {
		return refreshDoneMsg{}
	}))
}

func (m Model) openSetup() (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewSetup
	m.setupView = setup.New(m.cfg, m.layout.ContentWidth(), m.layout.ContentHeight())
	return m, m.setupView.Init()
}

func (m Model) startInstall() (tea.Model, tea.Cmd) {
	if m.install == nil {
		return m.setStatus("Install is not available")
	}
	switch m.install.Click() {
	case install.ActionPrompt:
		m.currentView = ViewInstallPrompt
		m.installPrompt = installview.NewPrompt(m.layout.ContentWidth())
		return m, m.installPrompt.Init()
	case install.ActionGuide:
		m.currentView = ViewInstallGuide
		return m, nil
	}
	if m.install.Installed() {
		return m.setStatus("Already installed")
	}
	return m, nil
}

func (m Model) runInstall() tea.Cmd {
	platform := m.opts.Platform
	return func() tea.Msg {
		path, err := platform.Install()
		return installDoneMsg{path: path, err: err}
	}
}

func (m Model) startExport(o model.Order) (tea.Model, tea.Cmd) {
	exp := m.exporter
	next, statusCmd := m.setStatus(fmt.Sprintf("Exporting receipt for order #%d...", o.TokenNumber))
	return next, tea.Batch(statusCmd, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		res, err := exp.Export(ctx, o)
		return exportDoneMsg{result: res, err: err}
	})
}

func (m Model) saveSetup(done setup.DoneMsg) tea.Cmd {
	path := m.opts.ConfigPath
	save := m.opts.SaveConfig
	saveSecret := m.opts.SaveSecret
	return func() tea.Msg {
		if done.Secret != "" {
			if err := saveSecret(done.Config.Firebase.AuthCredential, done.Secret); err != nil {
				return configSavedMsg{err: err}
			}
		}
		if err := save(path, done.Config); err != nil {
			return configSavedMsg{err: err}
		}
		return configSavedMsg{cfg: done.Config}
	}
}

// reconnect applies a new configuration: the old subscriptions are
// released and the dashboard starts over from a loading state.
func (m Model) reconnect(cfg *model.AppConfig) (tea.Model, tea.Cmd) {
	m.Stop()
	m.subscriber = nil
	m.cfg = cfg
	m.state = dashboard.New()
	m.feedErrors = make(map[feed.Collection]error)
	m.orderList.SetOrders(nil)
	m.exporter = m.buildExporter(cfg)
	loading := m.orderList.SetLoading(true)
	next, statusCmd := m.setStatus("Settings saved")
	return next, tea.Batch(loading, statusCmd, m.connect(cfg))
}

// setStatus shows a transient message in the status bar.
func (m Model) setStatus(text string) (Model, tea.Cmd) {
	m.statusSeq++
	m.statusMsg = text
	seq := m.statusSeq
	return m, tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// executeCommand handles a command from the command palette.
func (m Model) executeCommand(c command.CommandMsg) (tea.Model, tea.Cmd) {
	switch c.Name {
	case "refresh":
		return m.refresh()
	case "export":
		if len(c.Args) == 0 {
			if o, ok := m.orderList.Selected(); ok {
				return m.startExport(o)
			}
			return m.setStatus("No order selected")
		}
		token, err := strconv.Atoi(strings.TrimPrefix(c.Args[0], "#"))
		if err != nil {
			return m.setStatus("Usage: export <token>")
		}
		for _, o := range m.state.Orders() {
			if o.TokenNumber == token {
				return m.startExport(o)
			}
		}
		return m.setStatus(fmt.Sprintf("Order #%d not found", token))
	case "notifications":
		m.showNotifications = !m.showNotifications
		return m, nil
	case "install":
		return m.startInstall()
	case "setup", "config":
		return m.openSetup()
	case "status":
		if len(c.Args) == 0 {
			m.orderList.SetStatus(dashboard.StatusAll)
			return m, nil
		}
		m.orderList.SetStatus(titleCase(c.Args[0]))
		return m, nil
	case "clear":
		m.orderList.ClearFilters()
		return m, nil
	case "quit", "q":
		m.Stop()
		return m, tea.Quit
	default:
		return m.setStatus(fmt.Sprintf("Unknown command %q", c.Name))
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "Customer Orders"
	if n := m.state.UnreadCount(); n > 0 {
		title = fmt.Sprintf("Customer Orders [%d new]", n)
	}
	header := m.layout.RenderHeader(title, m.feedStatus())
	stats := m.layout.RenderStats(m.statsLine())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, m.renderContent(), stats, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	width := m.layout.ContentWidth()

	switch m.currentView {
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSetup:
		return m.setupView.View()
	case ViewInstallPrompt:
		return m.installPrompt.View()
	case ViewInstallGuide:
		exe, err := os.Executable()
		if err != nil {
			exe = "orderdash"
		}
		return installview.Guide(width, exe)
	}

	var parts []string
	if t := notifications.Toasts(m.toasts.Visible(), width); t != "" {
		parts = append(parts, lipgloss.PlaceHorizontal(width, lipgloss.Right, t))
	}
	if m.showNotifications {
		parts = append(parts, notifications.Panel(
			m.state.Recent(m.cfg.Display.NotificationLimit), m.state.UnreadCount(), width))
	}
	parts = append(parts, m.orderList.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// feedStatus returns a short string describing the feed state.
func (m Model) feedStatus() string {
	if len(m.feedErrors) > 0 {
		var failed []string
		for _, c := range feed.Collections {
			if _, ok := m.feedErrors[c]; ok {
				failed = append(failed, string(c))
			}
		}
		return "⚠ " + strings.Join(failed, ", ") + ": error"
	}
	switch {
	case m.subscriber == nil:
		return "not connected"
	case m.state.Loading():
		return "loading"
	default:
		return "live"
	}
}

func (m Model) statsLine() string {
	st := m.state.Stats()
	return fmt.Sprintf("Orders: %d · Revenue: ₹%s · Pending: %d · PDFs downloaded: %d",
		st.TotalOrders, st.Revenue.StringFixed(2), st.Pending, st.Exported)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" && m.currentView == ViewList {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewSetup:
		return "enter next | esc cancel"
	case ViewInstallPrompt:
		return "←/→ choose | enter confirm | esc cancel"
	case ViewInstallGuide:
		return "esc close"
	}

	if m.orderList.Searching() {
		return "type to search | enter/esc done"
	}
	hints := "q quit | ? help | / search | s status | tab sort | enter receipt | n notifications"
	if len(m.toasts.Visible()) > 0 {
		hints += " | x dismiss"
	}
	if m.install != nil && m.install.CanInstall() {
		hints += " | i install"
	}
	return hints
}
