package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/lineage/pkg/family"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// RootPickerModel - Interactive root person selection
// =============================================================================

// RootPickerModel is the bubbletea model behind `layout --pick`. Typing
// filters by name or id; enter selects the highlighted person.
type RootPickerModel struct {
	Persons  []family.Person
	Current  string // the tree's current root, marked in the list
	Filter   string
	Cursor   int
	Offset   int
	Height   int
	Selected *family.Person
}

// NewRootPickerModel lists the persons of t sorted by name.
func NewRootPickerModel(t family.Tree) RootPickerModel {
	persons := append([]family.Person(nil), t.Persons...)
	sort.SliceStable(persons, func(i, j int) bool {
		return strings.ToLower(persons[i].Label()) < strings.ToLower(persons[j].Label())
	})
	return RootPickerModel{Persons: persons, Current: t.RootPersonID, Height: 15}
}

// visible returns the persons matching the filter.
func (m RootPickerModel) visible() []family.Person {
	if m.Filter == "" {
		return m.Persons
	}
	f := strings.ToLower(m.Filter)
	var out []family.Person
	for _, p := range m.Persons {
		if strings.Contains(strings.ToLower(p.Label()), f) || strings.Contains(strings.ToLower(p.ID), f) {
			out = append(out, p)
		}
	}
	return out
}

func (m RootPickerModel) Init() tea.Cmd {
	return nil
}

func (m RootPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		persons := m.visible()
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case tea.KeyDown:
			if m.Cursor < len(persons)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case tea.KeyEnter:
			if len(persons) == 0 {
				return m, nil
			}
			p := persons[m.Cursor]
			m.Selected = &p
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Filter != "" {
				m.Filter = m.Filter[:len(m.Filter)-1]
				m.Cursor, m.Offset = 0, 0
			}
		case tea.KeyRunes, tea.KeySpace:
			m.Filter += string(msg.Runes)
			m.Cursor, m.Offset = 0, 0
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m RootPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Root Person"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to filter  ↑/↓ navigate  ⏎ select  esc quit"))
	b.WriteString("\n")
	if m.Filter != "" {
		b.WriteString(StyleValue.Render("filter: " + m.Filter))
	}
	b.WriteString("\n\n")

	persons := m.visible()
	end := min(m.Offset+m.Height, len(persons))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		p := persons[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		root := ""
		if p.ID == m.Current {
			root = "root"
		}
		rows = append(rows, []string{cursor, p.Label(), p.ID, lifeSpan(p), root})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "ID", "Life", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 2 {
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	if len(persons) == 0 {
		b.WriteString(listDimStyle.Render("  no matches"))
	} else {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(persons))))
	}
	return b.String()
}

func lifeSpan(p family.Person) string {
	switch {
	case p.Birth.Known() && p.Death.Known():
		return p.Birth.String() + " – " + p.Death.String()
	case p.Birth.Known():
		return "b. " + p.Birth.String()
	case p.Death.Known():
		return "d. " + p.Death.String()
	}
	return ""
}

// pickRoot runs the picker and returns the chosen person id, or "" when the
// user quit without choosing.
func pickRoot(t family.Tree) (string, error) {
	final, err := tea.NewProgram(NewRootPickerModel(t)).Run()
	if err != nil {
		return "", fmt.Errorf("root picker: %w", err)
	}
	if m, ok := final.(RootPickerModel); ok && m.Selected != nil {
		return m.Selected.ID, nil
	}
	return "", nil
}
