package output

import (
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/jedib0t/go-pretty/v6/table"
)

func renderTable(grid Grid) string {
	if len(grid.Rows) == 0 {
		return renderEmpty(grid)
	}

	var sb strings.Builder
	if grid.Title != "" {
		sb.WriteString(grid.Title)
		sb.WriteString("\n")
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(toRow(grid.Header))
	for _, row := range grid.Rows {
		t.AppendRow(toRow(row))
	}
	if grid.Footer != "" {
		footer := make(table.Row, len(grid.Header))
		footer[len(footer)-1] = grid.Footer
		t.AppendFooter(footer)
	}

	sb.WriteString(t.Render())
	sb.WriteString("\n")
	return sb.String()
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	return row
}

// renderEmpty boxes the title and the empty-state line.
func renderEmpty(grid Grid) string {
	lines := []string{}
	if grid.Title != "" {
		lines = append(lines, grid.Title, "")
	}
	if grid.Empty != "" {
		lines = append(lines, grid.Empty)
	}
	if len(lines) == 0 {
		return ""
	}
	return ascii.DrawBox(strings.Join(lines, "\n"), 0)
}
