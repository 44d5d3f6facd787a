package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukhas-labs/starlift/pkg/core"
)

func testAssignments() []*core.Assignment {
	return []*core.Assignment{
		{Module: "lukhas/memory/fold", Star: "memory", Status: core.StatusPromote, Confidence: 0.82, Margin: 0.82,
			Signals: []core.Signal{{RuleID: "MEM-CAP-01", Kind: core.SignalCapability, Weight: 0.6, Detail: "fold"}}},
		{Module: "lukhas/vision/core", Star: "vision", Status: core.StatusPinned, Confidence: 0.60, Margin: 0.60},
		{Module: "lukhas/memory/dream", Star: "memory", Status: core.StatusReview, Confidence: 0.40, Margin: 0.40},
		{Module: "lukhas/shared/util", Status: core.StatusUnassigned},
	}
}

func keyMsg(s string) tea.KeyMsg {
	if s == "tab" {
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowserShowsAllByDefault(t *testing.T) {
	b := NewBrowser(&core.Scan{ID: "scan-1"}, testAssignments())

	assert.Len(t, b.filtered, 4)
	view := b.View()
	assert.Contains(t, view, "lukhas/memory/fold")
	assert.Contains(t, view, "filter: all (4 shown)")
}

func TestBrowserTabCyclesStatusFilter(t *testing.T) {
	b := NewBrowser(nil, testAssignments())

	model, _ := b.Update(keyMsg("tab"))
	b = model.(*Browser)
	assert.Len(t, b.filtered, 2, "promote+pinned")

	model, _ = b.Update(keyMsg("tab"))
	b = model.(*Browser)
	assert.Len(t, b.filtered, 1, "review")

	model, _ = b.Update(keyMsg("tab"))
	b = model.(*Browser)
	assert.Len(t, b.filtered, 1, "unassigned")
	assert.Equal(t, "lukhas/shared/util", b.filtered[0].Module)

	model, _ = b.Update(keyMsg("tab"))
	b = model.(*Browser)
	assert.Len(t, b.filtered, 4, "back to all")
}

func TestBrowserTextFilter(t *testing.T) {
	b := NewBrowser(nil, testAssignments())

	model, _ := b.Update(keyMsg("/"))
	b = model.(*Browser)
	require.True(t, b.filterFocused)

	b.filterInput.SetValue("memory")
	b.applyFilter()
	assert.Len(t, b.filtered, 2)

	model, _ = b.Update(tea.KeyMsg{Type: tea.KeyEsc})
	b = model.(*Browser)
	assert.False(t, b.filterFocused)
}

func TestBrowserDetailView(t *testing.T) {
	b := NewBrowser(nil, testAssignments())

	model, _ := b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	b = model.(*Browser)
	require.True(t, b.showDetail)

	view := b.View()
	assert.Contains(t, view, "MEM-CAP-01")
	assert.Contains(t, view, "capability")
}

func TestBrowserQuit(t *testing.T) {
	b := NewBrowser(nil, testAssignments())

	_, cmd := b.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
