// Package toast manages short-lived in-app notifications. A toast becomes
// visible as soon as it is pushed and disappears when its timer fires or
// when the user dismisses it, whichever happens first.
package toast

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/nhle/order-dashboard/internal/model"
)

// DefaultTimeout is how long a toast stays visible without interaction.
const DefaultTimeout = 8 * time.Second

// Toast is a visible notification card.
type Toast struct {
	ID           string
	Notification model.Notification
	ShowTime     string
	CreatedAt    time.Time
}

// ExpiredMsg is delivered when a toast's timer fires.
type ExpiredMsg struct {
	ID string
}

// Alerter plays an audible cue for a new toast.
type Alerter interface {
	Alert() error
}

// BellAlerter rings the terminal bell on W.
type BellAlerter struct {
	W io.Writer
}

// Alert writes the BEL control character.
func (b BellAlerter) Alert() error {
	_, err := io.WriteString(b.W, "\a")
	return err
}

// Observer is told when toasts are shown and removed.
type Observer interface {
	ToastShown(kind string)
	ToastRemoved(reason string)
}

type noopObserver struct{}

func (noopObserver) ToastShown(string)   {}
func (noopObserver) ToastRemoved(string) {}

// Manager owns the visible toast set.
type Manager struct {
	toasts   []Toast
	timeout  time.Duration
	alerter  Alerter
	observer Observer
	now      func() time.Time
}

// New creates a manager whose toasts expire after timeout. A nil alerter
// disables the audible cue.
func New(timeout time.Duration, alerter Alerter) Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Manager{
		timeout:  timeout,
		alerter:  alerter,
		observer: noopObserver{},
		now:      time.Now,
	}
}

// SetObserver installs an observer for toast activity.
func (m *Manager) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	m.observer = o
}

// SetClock replaces the clock used for display times.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Push shows a toast for n and returns the commands that expire it and
// play the alert.
func (m *Manager) Push(n model.Notification) tea.Cmd {
	now := m.now()
	t := Toast{
		ID:           uuid.NewString(),
		Notification: n,
		ShowTime:     now.Format("15:04:05"),
		CreatedAt:    now,
	}
	m.toasts = append(m.toasts, t)
	m.observer.ToastShown(string(n.Type))

	id := t.ID
	expire := tea.Tick(m.timeout, func(time.Time) tea.Msg {
		return ExpiredMsg{ID: id}
	})
	if m.alerter == nil {
		return expire
	}

	// The cue runs as a command so it never writes from inside Update.
	// Sound is best effort only.
	alerter := m.alerter
	return tea.Batch(expire, func() tea.Msg {
		_ = alerter.Alert()
		return nil
	})
}

// Dismiss removes the toast with the given ID. It reports whether a toast
// was removed; dismissing an unknown or already removed ID is a no-op.
func (m *Manager) Dismiss(id string) bool {
	if m.remove(id) {
		m.observer.ToastRemoved("dismissed")
		return true
	}
	return false
}

// DismissOldest removes the oldest visible toast, if any.
func (m *Manager) DismissOldest() bool {
	if len(m.toasts) == 0 {
		return false
	}
	return m.Dismiss(m.toasts[0].ID)
}

// Update handles expiry messages.
func (m *Manager) Update(msg tea.Msg) {
	if exp, ok := msg.(ExpiredMsg); ok {
		if m.remove(exp.ID) {
			m.observer.ToastRemoved("expired")
		}
	}
}

// Visible returns the visible toasts, oldest first.
func (m Manager) Visible() []Toast {
	return m.toasts
}

// Has reports whether the toast with id is visible.
func (m Manager) Has(id string) bool {
	for _, t := range m.toasts {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (m *Manager) remove(id string) bool {
	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i:i], m.toasts[i+1:]...)
			return true
		}
	}
	return false
}
