package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// tableStyles holds the styles used to render static tables.
type tableStyles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Row    lipgloss.Style
	Sep    lipgloss.Style
}

func defaultTableStyles() tableStyles {
	return tableStyles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		Header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Row:    lipgloss.NewStyle().Padding(0, 1),
		Sep:    lipgloss.NewStyle().Foreground(lipgloss.Color("#2a3850")),
	}
}

// simpleTable renders rows of static text. The layout is adapted from
// codeNERD's cmd/nerd/ui/simple_table.go: columns are sized to their widest
// cell with lipgloss.Width, headers are separated from rows by a rule.
type simpleTable struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func newSimpleTable(title string, headers ...string) *simpleTable {
	return &simpleTable{
		Title:   title,
		Headers: headers,
		Rows:    make([][]string, 0),
	}
}

// AddRow adds a row to the table.
func (t *simpleTable) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// View renders the table.
func (t *simpleTable) View(styles tableStyles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	colWidths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(colWidths) {
				if w := lipgloss.Width(cell); w > colWidths[i] {
					colWidths[i] = w
				}
			}
		}
	}
	// lipgloss Width includes padding
	for i := range colWidths {
		colWidths[i] += 2
	}

	writeRow := func(cells []string, style lipgloss.Style) {
		for i, cell := range cells {
			if i >= len(colWidths) {
				break
			}
			sb.WriteString(style.Width(colWidths[i]).Render(cell))
			if i < len(cells)-1 {
				sb.WriteString(styles.Sep.Render("|"))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(t.Headers, styles.Header)
	totalWidth := len(t.Headers) - 1
	for _, w := range colWidths {
		totalWidth += w
	}
	sb.WriteString(styles.Sep.Render(strings.Repeat("-", totalWidth)) + "\n")
	for _, row := range t.Rows {
		writeRow(row, styles.Row)
	}
	return sb.String()
}
