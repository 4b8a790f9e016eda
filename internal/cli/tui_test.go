package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(m RootPickerModel, keys ...tea.KeyMsg) RootPickerModel {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(RootPickerModel)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRootPickerSortsByName(t *testing.T) {
	m := NewRootPickerModel(sampleTree())
	var names []string
	for _, p := range m.Persons {
		names = append(names, p.Name)
	}
	if got := strings.Join(names, ","); got != "Ann,Bob,Eve,Joe" {
		t.Errorf("order = %s", got)
	}
}

func TestRootPickerSelect(t *testing.T) {
	m := NewRootPickerModel(sampleTree())
	m = press(m,
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyUp},
	)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(RootPickerModel)
	if m.Selected == nil || m.Selected.ID != "bob" {
		t.Fatalf("selected %+v, want bob", m.Selected)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestRootPickerFilter(t *testing.T) {
	m := press(NewRootPickerModel(sampleTree()), runes("jo"))
	if v := m.visible(); len(v) != 1 || v[0].ID != "joe" {
		t.Fatalf("filter jo = %+v", v)
	}
	if !strings.Contains(m.View(), "filter: jo") {
		t.Error("view should show the filter")
	}

	m = press(m, runes("x"))
	if len(m.visible()) != 0 || !strings.Contains(m.View(), "no matches") {
		t.Error("filter jox should match nothing")
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if next.(RootPickerModel).Selected != nil {
		t.Error("enter with no matches should not select")
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.Filter != "" || len(m.visible()) != 4 {
		t.Errorf("backspace should clear the filter, got %q", m.Filter)
	}
}

func TestRootPickerQuit(t *testing.T) {
	next, cmd := NewRootPickerModel(sampleTree()).Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(RootPickerModel).Selected != nil || cmd == nil {
		t.Error("esc should quit without a selection")
	}
}

func TestRootPickerViewMarksRoot(t *testing.T) {
	view := NewRootPickerModel(sampleTree()).View()
	for _, want := range []string{"Select Root Person", "Ann", "root", "b. 1980", "[1/4]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
