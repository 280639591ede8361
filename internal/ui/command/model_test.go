package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, ok := Parse("  Export 41  ")
	require.True(t, ok)
	assert.Equal(t, "export", c.Name)
	assert.Equal(t, []string{"41"}, c.Args)

	_, ok = Parse("   ")
	assert.False(t, ok)
}

func TestEnterEmitsCommand(t *testing.T) {
	m := New(80, 24)
	m.Focus()
	for _, r := range "refresh" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Name: "refresh", Args: []string{}}, cmd())
	assert.Contains(t, m.View(), "Command Palette")
}

func TestEnterOnEmptyInput(t *testing.T) {
	m := New(80, 24)
	m.Focus()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
