// Package install renders the launcher install prompt and the manual
// install guide.
package install

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/order-dashboard/internal/theme"
)

// OutcomeMsg carries the user's answer to the install prompt.
type OutcomeMsg struct {
	Accepted bool
}

// Prompt is the install confirmation dialog.
type Prompt struct {
	form     *huh.Form
	accepted *bool
	width    int
}

// NewPrompt builds the confirmation dialog.
func NewPrompt(width int) Prompt {
	accepted := true
	p := Prompt{accepted: &accepted, width: width}
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Install Order Dashboard?").
				Description("Adds a launcher to your applications menu.").
				Affirmative("Install").
				Negative("Not now").
				Value(p.accepted),
		),
	).WithWidth(p.formWidth())
	return p
}

// Init starts the dialog.
func (p Prompt) Init() tea.Cmd {
	return p.form.Init()
}

// Update forwards messages to the dialog and reports the outcome.
func (p Prompt) Update(msg tea.Msg) (Prompt, tea.Cmd) {
	mdl, cmd := p.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		p.form = f
	}
	switch p.form.State {
	case huh.StateCompleted:
		accepted := *p.accepted
		return p, func() tea.Msg { return OutcomeMsg{Accepted: accepted} }
	case huh.StateAborted:
		return p, func() tea.Msg { return OutcomeMsg{Accepted: false} }
	}
	return p, cmd
}

// View renders the dialog.
func (p Prompt) View() string {
	return theme.PanelStyle.Width(p.formWidth() + 4).Render(p.form.View())
}

func (p Prompt) formWidth() int {
	w := p.width - 10
	if w > 60 {
		w = 60
	}
	if w < 30 {
		w = 30
	}
	return w
}

// Guide renders the manual install instructions shown when no launcher
// directory is available.
func Guide(width int, executable string) string {
	steps := []string{
		"No applications menu was found for automatic install.",
		"",
		"To add the dashboard manually:",
		"  1. Create ~/.local/share/applications",
		"  2. Press i again, or add a launcher that runs:",
		"     " + executable,
		"",
		theme.HelpStyle.Render("esc close"),
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.Render("Install Guide"),
		strings.Join(steps, "\n"),
	)
	w := width - 4
	if w > 70 {
		w = 70
	}
	return theme.PanelStyle.Width(w).Render(content)
}
