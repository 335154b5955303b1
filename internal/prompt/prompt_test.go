package prompt

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, m model, key tea.KeyMsg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	out, ok := next.(model)
	require.True(t, ok)
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConfirmYes(t *testing.T) {
	m, cmd := press(t, newModel("Publish?"), runes("y"))
	assert.True(t, m.answered)
	assert.True(t, m.confirmed)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "yes")
}

func TestDeclineKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{runes("n"), runes("N"), {Type: tea.KeyEnter}, {Type: tea.KeyEsc}} {
		m, cmd := press(t, newModel("Publish?"), key)
		assert.True(t, m.answered, key.String())
		assert.False(t, m.confirmed, key.String())
		assert.False(t, m.interrupted, key.String())
		assert.NotNil(t, cmd, key.String())
		assert.Contains(t, m.View(), "no")
	}
}

func TestInterrupt(t *testing.T) {
	m, cmd := press(t, newModel("Publish?"), tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, m.interrupted)
	assert.False(t, m.confirmed)
	assert.NotNil(t, cmd)
}

func TestOtherKeysIgnored(t *testing.T) {
	m, cmd := press(t, newModel("Publish?"), runes("x"))
	assert.False(t, m.answered)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "[y/N]")
	assert.Contains(t, m.View(), "Publish?")
}

func TestNonKeyMessagesIgnored(t *testing.T) {
	next, cmd := newModel("Publish?").Update(tea.WindowSizeMsg{Width: 80})
	assert.Nil(t, cmd)
	assert.False(t, next.(model).answered)
}
