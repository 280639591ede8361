// Package notifications renders the recent notifications panel and the
// toast stack.
package notifications

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/order-dashboard/internal/model"
	"github.com/nhle/order-dashboard/internal/theme"
	"github.com/nhle/order-dashboard/internal/toast"
)

// Panel renders the latest notifications, newest first.
func Panel(ns []model.Notification, unread, width int) string {
	title := "Notifications"
	if unread > 0 {
		title += " " + theme.BadgeStyle.Render(fmt.Sprintf("%d new", unread))
	}

	var lines []string
	lines = append(lines, theme.TitleStyle.Render(title))
	if len(ns) == 0 {
		lines = append(lines, theme.DimmedStyle.Render("No notifications yet"))
	}
	for _, n := range ns {
		lines = append(lines, entry(n))
	}

	w := width - 4
	if w < 20 {
		w = 20
	}
	return theme.PanelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func entry(n model.Notification) string {
	marker := "  "
	titleStyle := lipgloss.NewStyle()
	if !n.Read {
		marker = theme.UnreadStyle.Render("● ")
		titleStyle = theme.UnreadStyle
	}

	when := "N/A"
	if !n.Timestamp.IsZero() {
		when = n.Timestamp.Format("02/01/2006 15:04:05")
	}

	lines := []string{marker + titleStyle.Render(orDefault(n.Title, "Notification"))}
	if n.Message != "" {
		lines = append(lines, "  "+n.Message)
	}
	if n.Order != nil {
		lines = append(lines, "  "+theme.MoneyStyle.Render(fmt.Sprintf(
			"Token #%d · %s · ₹%s", n.Order.TokenNumber, orDefault(n.Order.CustomerName, "N/A"),
			n.Order.TotalAmount.StringFixed(2))))
	}
	lines = append(lines, "  "+theme.DimmedStyle.Render(when))
	return strings.Join(lines, "\n")
}

// Toasts renders the visible toasts, oldest first.
func Toasts(ts []toast.Toast, width int) string {
	if len(ts) == 0 {
		return ""
	}
	w := width / 2
	if w < 30 {
		w = 30
	}
	cards := make([]string, len(ts))
	for i, t := range ts {
		n := t.Notification
		head := theme.NotificationStyle(string(n.Type)).Render(orDefault(n.Title, "Notification"))
		body := []string{head}
		if n.Message != "" {
			body = append(body, n.Message)
		}
		body = append(body, theme.DimmedStyle.Render(t.ShowTime))
		cards[i] = theme.ToastStyle.Width(w).Render(strings.Join(body, "\n"))
	}
	return lipgloss.JoinVertical(lipgloss.Right, cards...)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
