package output

import (
	"strings"
)

func renderMarkdown(grid Grid) string {
	var sb strings.Builder
	if grid.Title != "" {
		sb.WriteString("## ")
		sb.WriteString(escapeMarkdownCell(grid.Title))
		sb.WriteString("\n\n")
	}
	if len(grid.Rows) == 0 {
		if grid.Empty != "" {
			sb.WriteString(grid.Empty)
			sb.WriteString("\n")
		}
		return sb.String()
	}

	writeMarkdownRow(&sb, grid.Header)
	separators := make([]string, len(grid.Header))
	for i := range separators {
		separators[i] = "---"
	}
	writeMarkdownRow(&sb, separators)
	for _, row := range grid.Rows {
		writeMarkdownRow(&sb, row)
	}
	if grid.Footer != "" {
		sb.WriteString("\n**")
		sb.WriteString(escapeMarkdownCell(grid.Footer))
		sb.WriteString("**\n")
	}
	return sb.String()
}

func writeMarkdownRow(sb *strings.Builder, cells []string) {
	escaped := make([]string, len(cells))
	for i, cell := range cells {
		escaped[i] = escapeMarkdownCell(cell)
	}
	sb.WriteString("| ")
	sb.WriteString(strings.Join(escaped, " | "))
	sb.WriteString(" |\n")
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "|", "\\|")
	return strings.ReplaceAll(value, "\n", " ")
}
