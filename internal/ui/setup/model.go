// Package setup is the first-run form that points the dashboard at a
// database and names the shop printed on receipts.
package setup

import (
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/order-dashboard/internal/model"
	"github.com/nhle/order-dashboard/internal/theme"
)

// DoneMsg carries the edited configuration. Secret is empty when the user
// left the auth field blank, meaning the stored secret is kept.
type DoneMsg struct {
	Config *model.AppConfig
	Secret string
}

// CancelMsg signals the form was aborted.
type CancelMsg struct{}

// fields holds the form values. huh binds to their addresses, so they live
// behind a pointer that survives copies of Model.
type fields struct {
	databaseURL  string
	secret       string
	receiptDir   string
	businessName string
	phone        string
	toastSeconds string
}

// Model wraps the huh setup form.
type Model struct {
	form *huh.Form
	base model.AppConfig
	v    *fields

	width, height int
}

// New creates the form pre-filled from cfg.
func New(cfg *model.AppConfig, width, height int) Model {
	m := Model{
		base: *cfg,
		v: &fields{
			databaseURL:  cfg.Firebase.DatabaseURL,
			receiptDir:   cfg.Receipt.Dir,
			businessName: cfg.Receipt.Business.Name,
			phone:        cfg.Receipt.Business.Phone,
			toastSeconds: fmt.Sprintf("%d", cfg.Display.ToastTimeoutSec),
		},
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Database URL").
				Description("Realtime database root, e.g. https://my-shop-default-rtdb.firebaseio.com").
				Placeholder("https://my-shop-default-rtdb.firebaseio.com").
				Value(&m.v.databaseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Database secret").
				Description("Optional auth token; leave blank to keep the stored one").
				EchoMode(huh.EchoModePassword).
				Value(&m.v.secret),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Receipt folder").
				Description("Where downloaded receipts are saved").
				Value(&m.v.receiptDir).
				Validate(validateRequired("Receipt folder")),
			huh.NewInput().
				Title("Shop name").
				Description("Printed at the top of every receipt").
				Value(&m.v.businessName).
				Validate(validateRequired("Shop name")),
			huh.NewInput().
				Title("Shop phone").
				Value(&m.v.phone),
			huh.NewInput().
				Title("Toast duration (seconds)").
				Value(&m.v.toastSeconds).
				Validate(validateSeconds),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update forwards messages to the form and reports completion.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		done := DoneMsg{Config: m.Result(), Secret: strings.TrimSpace(m.v.secret)}
		return m, func() tea.Msg { return done }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// Result returns the configuration with the form values applied.
func (m Model) Result() *model.AppConfig {
	cfg := m.base
	cfg.Firebase.DatabaseURL = strings.TrimRight(strings.TrimSpace(m.v.databaseURL), "/")
	cfg.Receipt.Dir = strings.TrimSpace(m.v.receiptDir)
	cfg.Receipt.Business.Name = strings.TrimSpace(m.v.businessName)
	cfg.Receipt.Business.Phone = strings.TrimSpace(m.v.phone)
	var secs int
	if _, err := fmt.Sscanf(m.v.toastSeconds, "%d", &secs); err == nil && secs > 0 {
		cfg.Display.ToastTimeoutSec = secs
	}
	return &cfg
}

// View renders the form.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Dashboard Setup")
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, m.form.View()))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w > 90 {
		w = 90
	}
	if w < 30 {
		w = 30
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.firebaseio.com)")
	}
	return nil
}

func validateSeconds(s string) error {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number of seconds")
	}
	return nil
}
