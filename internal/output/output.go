// Package output renders command results as tables, JSON, YAML or Markdown.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// Extension returns the file extension used when writing format to disk.
func Extension(format Format) string {
	switch format {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

// Grid is a titled table of display cells.
type Grid struct {
	Title  string
	Header []string
	Rows   [][]string
	Footer string
	// Empty is printed instead of the table when there are no rows.
	Empty string
}

// Render writes grid for table and markdown formats and doc for JSON and YAML.
func Render(w io.Writer, format Format, grid Grid, doc any) error {
	switch format {
	case FormatJSON, FormatYAML:
		return Document(w, format, doc)
	case FormatMarkdown:
		_, err := io.WriteString(w, renderMarkdown(grid))
		return err
	default:
		_, err := io.WriteString(w, renderTable(grid))
		return err
	}
}
