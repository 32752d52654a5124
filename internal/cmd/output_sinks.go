package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ghlink/ghlink/internal/output"
)

type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

// outputFlags are the --output-format and --out flags shared by commands
// that print results.
type outputFlags struct {
	format string
	out    string
}

func (f *outputFlags) register(cmd *cobra.Command, allowed ...output.Format) {
	names := make([]string, 0, len(allowed))
	for _, format := range allowed {
		names = append(names, string(format))
	}
	cmd.Flags().StringVarP(&f.format, "output-format", "o", string(allowed[0]), "Output format: "+strings.Join(names, "|"))
	cmd.Flags().StringVar(&f.out, "out", "", "Write output to a file (default stdout)")
}

func (f *outputFlags) resolve(allowed ...output.Format) (output.Format, error) {
	format, err := output.ParseFormat(f.format)
	if err != nil {
		return "", err
	}
	for _, candidate := range allowed {
		if candidate == format {
			return format, nil
		}
	}
	return "", fmt.Errorf("unsupported output format: %s", format)
}

// open resolves the format and opens the sink; callers must close it.
func (f *outputFlags) open(cmd *cobra.Command, allowed ...output.Format) (output.Format, *outputSink, error) {
	format, err := f.resolve(allowed...)
	if err != nil {
		return "", nil, err
	}
	sink, err := openSink(cmd, f.out)
	if err != nil {
		return "", nil, err
	}
	return format, sink, nil
}

func openSink(cmd *cobra.Command, path string) (*outputSink, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		return &outputSink{writer: cmd.OutOrStdout(), close: func() error { return nil }, path: "-"}, nil
	}

	if err := os.MkdirAll(filepath.Dir(trimmed), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(trimmed)
	if err != nil {
		return nil, err
	}
	return &outputSink{writer: file, close: file.Close, path: trimmed}, nil
}

var allFormats = []output.Format{output.FormatTable, output.FormatJSON, output.FormatYAML, output.FormatMarkdown}
