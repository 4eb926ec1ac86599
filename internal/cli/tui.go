package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hanhandi-git/flowchartRenderer/pkg/examples"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ExampleListModel - Interactive example selection
// =============================================================================

// ExampleListModel is the bubbletea model for interactive example selection.
type ExampleListModel struct {
	Examples []examples.Example
	Cursor   int
	Selected *examples.Example
}

// NewExampleListModel creates a new example list model.
func NewExampleListModel(list []examples.Example) ExampleListModel {
	return ExampleListModel{Examples: list}
}

func (m ExampleListModel) Init() tea.Cmd {
	return nil
}

func (m ExampleListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Examples)-1 {
				m.Cursor++
			}
		case "enter":
			if len(m.Examples) == 0 {
				return m, tea.Quit
			}
			ex := m.Examples[m.Cursor]
			m.Selected = &ex
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ExampleListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Example"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")
	b.WriteString(exampleTable(m.Examples, m.Cursor).Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Examples))))

	return b.String()
}

// exampleTable renders the examples as a table. cursor < 0 highlights nothing.
func exampleTable(list []examples.Example, cursor int) *table.Table {
	rows := make([][]string, 0, len(list))
	for i, ex := range list {
		marker := "  "
		if i == cursor {
			marker = "▸ "
		}
		editable := "—"
		if ex.Type.SupportsVisualEditing() {
			editable = "✓"
		}
		rows = append(rows, []string{marker, string(ex.Type), ex.Title, string(ex.Dialect), editable})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Type", "Title", "Dialect", "Graph").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(list) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if !list[row].Type.SupportsVisualEditing() {
				base = base.Foreground(colorDim)
			}
			if row == cursor {
				return base.Foreground(colorGreen).Bold(true)
			}
			return base
		})
}
