package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ghlink/ghlink/internal/observability"
	"github.com/ghlink/ghlink/internal/output"
	"github.com/ghlink/ghlink/internal/tools"
)

var (
	callArgPairs []string
	callArgsJSON string
	callOutput   outputFlags
)

var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Invoke one tool and print its result envelope",
	Long: `Invoke one tool from the catalog and print its result envelope.

Arguments come from --args-json (a JSON object, @file, or - for stdin) and
repeated --arg key=value pairs; --arg wins when both set a key. Values are
coerced to the parameter types listed by 'ghlink tools show <tool>'.

Examples:
  ghlink call get_repository --arg owner=octocat --arg repo=hello-world
  ghlink call list_issues --args-json '{"owner":"octocat","repo":"hello-world","state":"open"}' -o json
  echo '{"username":"octocat"}' | ghlink call get_user --args-json -

The command exits non-zero when the envelope reports a failure.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringArrayVar(&callArgPairs, "arg", nil, "tool argument as key=value (repeatable)")
	callCmd.Flags().StringVar(&callArgsJSON, "args-json", "", "tool arguments as a JSON object, @file, or - for stdin")
	callOutput.register(callCmd, allFormats...)
}

func runCall(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	ctx := cmd.Context()

	format, err := callOutput.resolve(allFormats...)
	if err != nil {
		return err
	}

	raw, err := buildToolArgs(callArgPairs, callArgsJSON, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, observability.CLILogger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	result := a.registry.Invoke(tools.WithTransport(ctx, "cli"), name, raw)

	sink, err := openSink(cmd, callOutput.out)
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()

	if err := output.Envelope(sink.writer, format, result); err != nil {
		return err
	}

	if !result.Success {
		observability.CLILogger.Debug("Tool call failed",
			zap.String("tool", name),
			zap.String("kind", result.Kind),
			zap.String("error", result.Error))
		return &toolFailure{tool: name, kind: result.Kind, message: result.Error}
	}
	return nil
}

// buildToolArgs merges --args-json with --arg pairs.
func buildToolArgs(pairs []string, argsJSON string, stdin io.Reader) (map[string]any, error) {
	raw := map[string]any{}

	source := strings.TrimSpace(argsJSON)
	if source != "" {
		data, err := readArgsSource(source, stdin)
		if err != nil {
			return nil, err
		}
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("--args-json must be a JSON object: %w", err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--arg must be key=value, got %q", pair)
		}
		raw[key] = value
	}
	return raw, nil
}

func readArgsSource(source string, stdin io.Reader) ([]byte, error) {
	switch {
	case source == "-":
		if stdin == nil {
			return nil, fmt.Errorf("no stdin for --args-json -")
		}
		return io.ReadAll(stdin)
	case strings.HasPrefix(source, "@"):
		data, err := os.ReadFile(strings.TrimPrefix(source, "@"))
		if err != nil {
			return nil, fmt.Errorf("read --args-json file: %w", err)
		}
		return data, nil
	default:
		return []byte(source), nil
	}
}
