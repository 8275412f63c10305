package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"home", "home", true},
		{"  Notices ", "notices", true},
		{"hide notices today", "hide", true},
		{"log out", "logout", true},
		{"q", "quit", true},
		{"delete", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestUpdate_EnterEmitsCanonicalName(t *testing.T) {
	m := New(80, 24)
	m = typeText(m, "r")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg("refresh"), cmd())
	assert.Empty(t, m.input.Value())
}

func TestUpdate_UnknownStaysOpen(t *testing.T) {
	m := New(80, 24)
	m = typeText(m, "bogus")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.errMsg, "bogus")
	assert.Equal(t, "bogus", m.input.Value())

	m.Focus()
	assert.Empty(t, m.errMsg)
}
