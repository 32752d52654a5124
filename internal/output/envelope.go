package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/ghlink/ghlink/internal/tools"
)

// Envelope renders a tool result. JSON and YAML carry the envelope as is;
// table and markdown print the message followed by the payload.
func Envelope(w io.Writer, format Format, result *tools.Result) error {
	if result == nil {
		return fmt.Errorf("nil tool result")
	}

	switch format {
	case FormatJSON, FormatYAML:
		return Document(w, format, result.Map())
	case FormatMarkdown:
		return envelopeMarkdown(w, result)
	default:
		return envelopeText(w, result)
	}
}

func envelopeText(w io.Writer, result *tools.Result) error {
	if !result.Success {
		_, err := fmt.Fprintf(w, "FAILED: %s\n  error: %s\n", result.Message, result.Error)
		return err
	}

	if _, err := fmt.Fprintf(w, "OK: %s\n", result.Message); err != nil {
		return err
	}
	body := payload(result)
	if len(body) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return Document(w, FormatYAML, body)
}

func envelopeMarkdown(w io.Writer, result *tools.Result) error {
	var sb strings.Builder
	if result.Success {
		sb.WriteString("**" + escapeMarkdownCell(result.Message) + "**\n")
	} else {
		sb.WriteString("**Failed:** " + escapeMarkdownCell(result.Message) + "\n\n")
		sb.WriteString("> " + escapeMarkdownCell(result.Error) + "\n")
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}

	body := payload(result)
	if !result.Success || len(body) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "\n```json\n"); err != nil {
		return err
	}
	if err := Document(w, FormatJSON, body); err != nil {
		return err
	}
	_, err := io.WriteString(w, "```\n")
	return err
}

// payload is the envelope without its status fields.
func payload(result *tools.Result) map[string]any {
	body := result.Map()
	delete(body, "success")
	delete(body, "message")
	delete(body, "error")
	return body
}
