package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/audit"
	"mercator-hq/ganymede/pkg/audit/export"
	auditstorage "mercator-hq/ganymede/pkg/audit/storage"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
)

var auditFlags struct {
	backend   string
	timeRange string
	identity  string
	outcome   string
	transport string
	limit     int
	offset    int
	format    string
	output    string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the audit trail",
	Long: `Query and export extraction session records.

Every extraction session leaves one audit record: who ran it, over which
transport, how large the transcript was before and after compaction, how
many sections came back, and how it ended.

Subcommands:
  query   - Query audit records with filters
  report  - Aggregate statistics over a time range

Examples:
  # Query the last day
  ganymede audit query --time-range "2026-08-24T00:00:00Z/2026-08-25T00:00:00Z"

  # Sessions a given caller ran
  ganymede audit query --identity "team-planning"

  # Failed sessions as CSV
  ganymede audit query --outcome error --format csv --output failures.csv`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit records",
	Long: `Query audit records with various filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-08-24T00:00:00Z/2026-08-25T00:00:00Z"

Examples:
  # Query a specific time range
  ganymede audit query --time-range "2026-08-24T00:00:00Z/2026-08-25T00:00:00Z"

  # Filter by identity and outcome
  ganymede audit query --identity "team-planning" --outcome complete

  # WebSocket sessions only
  ganymede audit query --transport websocket

  # Export to JSON
  ganymede audit query --format json --output sessions.json`,
	RunE: queryAudit,
}

var auditReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate statistics over the audit trail",
	Long:  `Summarize sessions by outcome and transport over a time range.`,
	RunE:  auditReport,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditReportCmd)

	// Flags for query command
	auditQueryCmd.Flags().StringVar(&auditFlags.backend, "backend", "", "backend: sqlite, memory (uses config if not specified)")
	auditQueryCmd.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	auditQueryCmd.Flags().StringVar(&auditFlags.identity, "identity", "", "filter by caller identity")
	auditQueryCmd.Flags().StringVar(&auditFlags.outcome, "outcome", "", "filter by outcome (complete, error, rejected, too_large, canceled)")
	auditQueryCmd.Flags().StringVar(&auditFlags.transport, "transport", "", "filter by transport (sse, websocket, cli)")
	auditQueryCmd.Flags().IntVar(&auditFlags.limit, "limit", 100, "max results")
	auditQueryCmd.Flags().IntVar(&auditFlags.offset, "offset", 0, "pagination offset")
	auditQueryCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json, csv")
	auditQueryCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file (default: stdout)")

	// Flags for report command
	auditReportCmd.Flags().StringVar(&auditFlags.backend, "backend", "", "backend: sqlite, memory")
	auditReportCmd.Flags().StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval)")
	auditReportCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json")
	auditReportCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "", "output file")
}

// openAuditStore resolves the audit storage backend from flags and
// config. The caller closes the returned storage.
func openAuditStore() (audit.Storage, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	backend := auditFlags.backend
	if backend == "" {
		backend = cfg.Audit.Backend
	}

	switch backend {
	case "sqlite":
		store, err := auditstorage.NewSQLiteStorage(&auditstorage.SQLiteConfig{
			Path:         cfg.Audit.SQLite.Path,
			MaxOpenConns: cfg.Audit.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Audit.SQLite.MaxIdleConns,
			WALMode:      cfg.Audit.SQLite.WALMode,
			BusyTimeout:  cfg.Audit.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open audit storage: %w", err)
		}
		return store, nil
	case "memory":
		return auditstorage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s (supported: sqlite, memory)", backend)
	}
}

// buildAuditQuery translates the command flags into a storage query.
func buildAuditQuery() (*audit.Query, error) {
	query := &audit.Query{
		Identity:  auditFlags.identity,
		Outcome:   auditFlags.outcome,
		Transport: auditFlags.transport,
		Limit:     auditFlags.limit,
		Offset:    auditFlags.offset,
	}

	if auditFlags.timeRange != "" {
		parts := strings.Split(auditFlags.timeRange, "/")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid time range format (expected: start/end)")
		}

		since, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid start time: %w", err)
		}
		query.Since = &since

		until, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid end time: %w", err)
		}
		query.Until = &until
	}

	return query, nil
}

func openOutput() (*os.File, func(), error) {
	if auditFlags.output == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(auditFlags.output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func queryAudit(cmd *cobra.Command, args []string) error {
	store, err := openAuditStore()
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer store.Close()

	query, err := buildAuditQuery()
	if err != nil {
		return err
	}

	ctx := context.Background()
	records, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("query failed: %w", err))
	}

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	switch auditFlags.format {
	case "json":
		return export.NewJSONExporter(true).Export(ctx, records, out)
	case "csv":
		return export.NewCSVExporter(true).Export(ctx, records, out)
	default:
		return printAuditRecords(out, records, query)
	}
}

func printAuditRecords(out *os.File, records []*audit.Record, query *audit.Query) error {
	if query.Since != nil && query.Until != nil {
		fmt.Fprintf(out, "Time range: %s to %s\n",
			query.Since.Format(time.RFC3339),
			query.Until.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "Total records: %d\n", len(records))
	fmt.Fprintln(out)

	if len(records) == 0 {
		fmt.Fprintln(out, "No records found.")
		return nil
	}

	for i, record := range records {
		if i > 0 {
			fmt.Fprintln(out)
		}

		fmt.Fprintf(out, "Record ID: %s\n", record.ID)
		fmt.Fprintf(out, "Started: %s\n", record.StartedAt.Format(time.RFC3339))
		fmt.Fprintf(out, "Identity: %s\n", record.Identity)
		fmt.Fprintf(out, "Transport: %s\n", record.Transport)
		if record.Model != "" {
			fmt.Fprintf(out, "Model: %s\n", record.Model)
		}
		fmt.Fprintf(out, "Transcript: %d chars", record.SourceChars)
		if record.WasCompacted {
			fmt.Fprintf(out, " (compacted to %d)", record.CompactedChars)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Outcome: %s", record.Outcome)
		if record.ErrorDetail != "" {
			fmt.Fprintf(out, " (%s)", record.ErrorDetail)
		}
		fmt.Fprintln(out)
		if record.SectionCount > 0 {
			fmt.Fprintf(out, "Sections: %d\n", record.SectionCount)
		}
		if record.Title != "" {
			fmt.Fprintf(out, "Title: %s\n", record.Title)
		}
		fmt.Fprintf(out, "Duration: %dms\n", record.DurationMs)

		// Show limited output for large result sets
		if i >= 9 && len(records) > 10 {
			remaining := len(records) - 10
			fmt.Fprintln(out)
			fmt.Fprintf(out, "... and %d more records\n", remaining)
			fmt.Fprintf(out, "Use --limit and --offset for pagination.\n")
			break
		}
	}

	return nil
}

// auditSummary is the aggregate shape the report command produces.
type auditSummary struct {
	GeneratedAt     string         `json:"generated_at"`
	TotalSessions   int            `json:"total_sessions"`
	ByOutcome       map[string]int `json:"by_outcome"`
	ByTransport     map[string]int `json:"by_transport"`
	TotalSections   int            `json:"total_sections"`
	SourceChars     int64          `json:"source_chars"`
	CompactedChars  int64          `json:"compacted_chars"`
	CompactionSaved float64        `json:"compaction_saved_percent"`
	MeanDurationMs  int64          `json:"mean_duration_ms"`
}

func auditReport(cmd *cobra.Command, args []string) error {
	store, err := openAuditStore()
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer store.Close()

	query, err := buildAuditQuery()
	if err != nil {
		return err
	}
	query.Limit = 10000
	query.Offset = 0

	ctx := context.Background()
	records, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("query failed: %w", err))
	}

	summary := summarize(records)

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	if auditFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(out, summary)
	}
	printAuditSummary(out, summary, query)
	return nil
}

func summarize(records []*audit.Record) auditSummary {
	summary := auditSummary{
		GeneratedAt:   time.Now().Format(time.RFC3339),
		TotalSessions: len(records),
		ByOutcome:     make(map[string]int),
		ByTransport:   make(map[string]int),
	}

	var totalDuration int64
	for _, record := range records {
		summary.ByOutcome[record.Outcome]++
		summary.ByTransport[record.Transport]++
		summary.TotalSections += record.SectionCount
		summary.SourceChars += int64(record.SourceChars)
		summary.CompactedChars += int64(record.CompactedChars)
		totalDuration += record.DurationMs
	}

	if len(records) > 0 {
		summary.MeanDurationMs = totalDuration / int64(len(records))
	}
	if summary.SourceChars > 0 {
		saved := float64(summary.SourceChars-summary.CompactedChars) / float64(summary.SourceChars) * 100
		if saved < 0 {
			saved = 0
		}
		summary.CompactionSaved = saved
	}

	return summary
}

func printAuditSummary(out *os.File, summary auditSummary, query *audit.Query) {
	fmt.Fprintln(out, "Extraction Audit Report")
	fmt.Fprintln(out, "=======================")

	if query.Since != nil && query.Until != nil {
		fmt.Fprintf(out, "Time Range: %s to %s\n",
			query.Since.Format("2006-01-02"),
			query.Until.Format("2006-01-02"))
	}
	fmt.Fprintf(out, "Generated: %s\n", summary.GeneratedAt)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Summary:")
	fmt.Fprintln(out, "--------")
	fmt.Fprintf(out, "Total Sessions: %d\n", summary.TotalSessions)
	fmt.Fprintf(out, "Sections Delivered: %d\n", summary.TotalSections)
	fmt.Fprintf(out, "Transcript Volume: %d chars in, %d chars sent upstream (%.1f%% saved)\n",
		summary.SourceChars, summary.CompactedChars, summary.CompactionSaved)
	fmt.Fprintf(out, "Mean Duration: %dms\n", summary.MeanDurationMs)
	fmt.Fprintln(out)

	if summary.TotalSessions == 0 {
		return
	}

	fmt.Fprintln(out, "By Outcome:")
	for outcome, count := range summary.ByOutcome {
		pct := float64(count) / float64(summary.TotalSessions) * 100
		fmt.Fprintf(out, "  %s: %d sessions (%.0f%%)\n", outcome, count, pct)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "By Transport:")
	for transport, count := range summary.ByTransport {
		pct := float64(count) / float64(summary.TotalSessions) * 100
		fmt.Fprintf(out, "  %s: %d sessions (%.0f%%)\n", transport, count, pct)
	}
}
