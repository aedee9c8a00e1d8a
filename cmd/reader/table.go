package main

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// table renders static rows as padded columns. A table without headers
// prints rows only, which suits key/value listings.
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) widths() []int {
	n := len(t.headers)
	for _, row := range t.rows {
		n = max(n, len(row))
	}

	widths := make([]int, n)
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	// lipgloss counts padding inside Width
	for i := range widths {
		widths[i] += 2
	}
	return widths
}

func (t *table) render(w io.Writer) error {
	widths := t.widths()

	var sb strings.Builder
	if len(t.headers) > 0 {
		total := 0
		for i, h := range t.headers {
			sb.WriteString(headerStyle.Width(widths[i]).Render(h))
			total += widths[i]
		}
		sb.WriteString("\n")
		sb.WriteString(mutedStyle.Render(strings.Repeat("─", total)))
		sb.WriteString("\n")
	}

	for _, row := range t.rows {
		for i, cell := range row {
			sb.WriteString(cellStyle.Width(widths[i]).Render(cell))
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
