package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghlink/ghlink/internal/core/engine"
	"github.com/ghlink/ghlink/internal/output"
	"github.com/ghlink/ghlink/internal/server"
)

var (
	admissionOutput outputFlags
	admissionServer string
)

var admissionCmd = &cobra.Command{
	Use:   "admission",
	Short: "Show the outbound admission window",
	Long: `Show the sliding admission window that bounds outbound GitHub calls.

The window lives in the serving process. Without --server this prints the
configured budget of a fresh window; with --server it reads the live window
from a running 'ghlink serve' (GET /v1/admission).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, sink, err := admissionOutput.open(cmd, allFormats...)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		var report server.AdmissionReport
		if base := strings.TrimSpace(admissionServer); base != "" {
			report, err = fetchAdmission(ctx, base)
		} else {
			report, err = localAdmission(ctx)
		}
		if err != nil {
			return err
		}
		return output.Render(sink.writer, format, admissionGrid(report), report)
	},
}

func init() {
	rootCmd.AddCommand(admissionCmd)

	admissionOutput.register(admissionCmd, allFormats...)
	admissionCmd.Flags().StringVar(&admissionServer, "server", "", "base URL of a running ghlink serve, e.g. http://localhost:8080")
}

func localAdmission(ctx context.Context) (server.AdmissionReport, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return server.AdmissionReport{}, err
	}
	limiter, err := engine.NewRateLimiter(cfg.GitHub.RateLimit.MaxRequests, cfg.GitHub.RateLimit.Window)
	if err != nil {
		return server.AdmissionReport{}, err
	}
	return server.NewAdmissionReport(limiter.Snapshot()), nil
}

func fetchAdmission(ctx context.Context, base string) (server.AdmissionReport, error) {
	var report server.AdmissionReport

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	endpoint := strings.TrimRight(base, "/") + "/v1/admission"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return report, fmt.Errorf("build admission request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return report, fmt.Errorf("fetch admission: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode != http.StatusOK {
		return report, fmt.Errorf("fetch admission: %s returned %s", endpoint, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return report, fmt.Errorf("decode admission: %w", err)
	}
	return report, nil
}

func admissionGrid(report server.AdmissionReport) output.Grid {
	oldest := "-"
	if report.Oldest != nil {
		oldest = report.Oldest.UTC().Format(time.RFC3339)
	}
	return output.Grid{
		Title:  "Admission window",
		Header: []string{"Field", "Value"},
		Rows: [][]string{
			{"used", fmt.Sprintf("%d", report.Used)},
			{"limit", fmt.Sprintf("%d", report.Limit)},
			{"available", fmt.Sprintf("%d", report.Available)},
			{"window", report.Window},
			{"oldest", oldest},
			{"next slot in", fmt.Sprintf("%.0fs", report.NextSlotInSeconds)},
			{"generated at", report.GeneratedAt.UTC().Format(time.RFC3339)},
		},
	}
}
