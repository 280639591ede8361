package toast

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/order-dashboard/internal/model"
)

type countingAlerter struct {
	calls int
	err   error
}

func (c *countingAlerter) Alert() error {
	c.calls++
	return c.err
}

type recordingObserver struct {
	shown   []string
	removed []string
}

func (r *recordingObserver) ToastShown(kind string)     { r.shown = append(r.shown, kind) }
func (r *recordingObserver) ToastRemoved(reason string) { r.removed = append(r.removed, reason) }

func newOrder(id string) model.Notification {
	return model.Notification{ID: id, Type: model.NotificationNewOrder, Title: "New order"}
}

// run executes cmd and any batched commands, returning every non-nil message.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func TestPushMakesToastVisible(t *testing.T) {
	alerter := &countingAlerter{}
	m := New(0, alerter)
	m.SetClock(func() time.Time { return time.Date(2024, 10, 1, 14, 5, 9, 0, time.UTC) })

	cmd := m.Push(newOrder("n1"))
	require.NotNil(t, cmd)

	visible := m.Visible()
	require.Len(t, visible, 1)
	assert.NotEmpty(t, visible[0].ID)
	assert.Equal(t, "n1", visible[0].Notification.ID)
	assert.Equal(t, "14:05:09", visible[0].ShowTime)
}

func TestAlertRunsAsCommand(t *testing.T) {
	alerter := &countingAlerter{}
	m := New(10*time.Millisecond, alerter)

	cmd := m.Push(newOrder("n1"))
	assert.Zero(t, alerter.calls, "no output while the model updates")

	msgs := run(cmd)
	assert.Equal(t, 1, alerter.calls)
	assert.Equal(t, []tea.Msg{ExpiredMsg{ID: m.Visible()[0].ID}}, msgs)
}

func TestPushAssignsUniqueIDs(t *testing.T) {
	m := New(time.Second, nil)
	m.Push(newOrder("n1"))
	m.Push(newOrder("n1"))
	v := m.Visible()
	require.Len(t, v, 2)
	assert.NotEqual(t, v[0].ID, v[1].ID)
}

func TestAlertFailureDoesNotBlockToast(t *testing.T) {
	alerter := &countingAlerter{err: errors.New("no audio device")}
	m := New(10*time.Millisecond, alerter)
	cmd := m.Push(newOrder("n1"))
	id := m.Visible()[0].ID

	assert.Equal(t, []tea.Msg{ExpiredMsg{ID: id}}, run(cmd))
	assert.Equal(t, 1, alerter.calls)
	assert.Len(t, m.Visible(), 1)
}

func TestTimerProducesExpiry(t *testing.T) {
	m := New(10*time.Millisecond, nil)
	cmd := m.Push(newOrder("n1"))
	id := m.Visible()[0].ID

	msg := cmd()
	assert.Equal(t, ExpiredMsg{ID: id}, msg)

	m.Update(msg)
	assert.Empty(t, m.Visible())
}

func TestExpiryRemovesOnlyItsToast(t *testing.T) {
	m := New(time.Second, nil)
	m.Push(newOrder("a"))
	m.Push(newOrder("b"))
	first := m.Visible()[0].ID

	m.Update(ExpiredMsg{ID: first})
	require.Len(t, m.Visible(), 1)
	assert.Equal(t, "b", m.Visible()[0].Notification.ID)
}

func TestDismissBeforeExpiry(t *testing.T) {
	obs := &recordingObserver{}
	m := New(time.Second, nil)
	m.SetObserver(obs)
	m.Push(newOrder("a"))
	m.Push(newOrder("b"))
	id := m.Visible()[0].ID

	assert.True(t, m.Dismiss(id))
	assert.False(t, m.Has(id))

	// The deferred expiry fires later and must have no effect.
	m.Update(ExpiredMsg{ID: id})
	assert.False(t, m.Dismiss(id))
	require.Len(t, m.Visible(), 1)
	assert.Equal(t, "b", m.Visible()[0].Notification.ID)

	assert.Equal(t, []string{"new_order", "new_order"}, obs.shown)
	assert.Equal(t, []string{"dismissed"}, obs.removed)
}

func TestDismissOldest(t *testing.T) {
	m := New(time.Second, nil)
	assert.False(t, m.DismissOldest())
	m.Push(newOrder("a"))
	m.Push(newOrder("b"))
	assert.True(t, m.DismissOldest())
	require.Len(t, m.Visible(), 1)
	assert.Equal(t, "b", m.Visible()[0].Notification.ID)
}

func TestUpdateIgnoresOtherMessages(t *testing.T) {
	m := New(time.Second, nil)
	m.Push(newOrder("a"))
	m.Update("unrelated")
	assert.Len(t, m.Visible(), 1)
}
