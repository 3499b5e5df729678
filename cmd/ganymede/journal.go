package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/journal"
)

var journalFlags struct {
	timeRange string
	model     string
	status    string
	mode      string
	limit     int
	offset    int
	format    string
	output    string
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the request journal",
	Long: `Query and maintain the request journal database.

The journal command reads the journal configured in the config file and
provides access to per-request records for inspection and cleanup.

Subcommands:
  query  - Query journal records with filters
  stats  - Summarize journal records
  prune  - Delete records older than the retention window

Examples:
  # Show the most recent requests
  ganymede journal query --limit 20

  # Show failed requests for one model
  ganymede journal query --model deepseek-r1 --status error

  # Export a day of records to CSV
  ganymede journal query --time-range "2026-03-01T00:00:00Z/2026-03-02T00:00:00Z" --format csv --output day.csv`,
}

var journalQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query journal records",
	Long: `Query journal records with various filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-03-01T00:00:00Z/2026-03-02T00:00:00Z"

Examples:
  # Query a specific time range
  ganymede journal query --time-range "2026-03-01T00:00:00Z/2026-03-02T00:00:00Z"

  # Filter by model and status
  ganymede journal query --model deepseek-v3 --status error

  # Streaming requests only
  ganymede journal query --mode stream

  # Export to JSON
  ganymede journal query --format json --output journal.json`,
	RunE: queryJournal,
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize journal records",
	Long:  `Summarize journal records by model, mode, and status.`,
	RunE:  journalStats,
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records past the retention window",
	Long: `Delete journal records older than the configured retention window.

This runs the same pruning the scheduled retention job performs, once,
immediately.`,
	RunE: pruneJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalQueryCmd, journalStatsCmd, journalPruneCmd)

	// Flags for query command
	journalQueryCmd.Flags().StringVar(&journalFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	journalQueryCmd.Flags().StringVar(&journalFlags.model, "model", "", "filter by requested model")
	journalQueryCmd.Flags().StringVar(&journalFlags.status, "status", "", "filter by status (success, error, rejected)")
	journalQueryCmd.Flags().StringVar(&journalFlags.mode, "mode", "", "filter by response mode (stream, aggregate)")
	journalQueryCmd.Flags().IntVar(&journalFlags.limit, "limit", 100, "max results")
	journalQueryCmd.Flags().IntVar(&journalFlags.offset, "offset", 0, "pagination offset")
	journalQueryCmd.Flags().StringVar(&journalFlags.format, "format", "text", "output format: text, json, csv")
	journalQueryCmd.Flags().StringVarP(&journalFlags.output, "output", "o", "", "output file (default: stdout)")

	// Flags for stats command
	journalStatsCmd.Flags().StringVar(&journalFlags.timeRange, "time-range", "", "time range (RFC3339 interval)")
}

// openJournalStore loads the configuration and opens the journal
// database it names. The caller closes the store.
func openJournalStore() (*journal.SQLiteStore, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	store, err := journal.NewSQLiteStore(cfg.Journal)
	if err != nil {
		return nil, cli.NewCommandError("journal", fmt.Errorf("failed to open journal storage: %w", err))
	}
	return store, nil
}

// parseTimeRange splits an RFC3339 interval ("start/end") into its
// bounds. Both are nil when the range is empty.
func parseTimeRange(timeRange string) (*time.Time, *time.Time, error) {
	if timeRange == "" {
		return nil, nil, nil
	}

	parts := strings.Split(timeRange, "/")
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("invalid time range format (expected: start/end)")
	}

	startTime, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid start time: %w", err)
	}
	endTime, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid end time: %w", err)
	}

	return &startTime, &endTime, nil
}

func queryJournal(cmd *cobra.Command, args []string) error {
	store, err := openJournalStore()
	if err != nil {
		return err
	}
	defer store.Close()

	since, until, err := parseTimeRange(journalFlags.timeRange)
	if err != nil {
		return err
	}

	query := &journal.Query{
		Since:  since,
		Until:  until,
		Model:  journalFlags.model,
		Status: journalFlags.status,
		Mode:   journalFlags.mode,
		Limit:  journalFlags.limit,
		Offset: journalFlags.offset,
	}

	ctx := context.Background()
	records, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("journal", fmt.Errorf("query failed: %w", err))
	}

	// Output results
	var output *os.File
	if journalFlags.output != "" {
		output, err = os.Create(journalFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	switch journalFlags.format {
	case "json":
		return outputJournalJSON(output, records)
	case "csv":
		return outputJournalCSV(output, records)
	default:
		return outputJournalText(output, records, query)
	}
}

func outputJournalText(output *os.File, records []*journal.Record, query *journal.Query) error {
	if query.Since != nil && query.Until != nil {
		fmt.Fprintf(output, "Time range: %s to %s\n",
			query.Since.Format(time.RFC3339),
			query.Until.Format(time.RFC3339))
	}
	fmt.Fprintf(output, "Total records: %d\n", len(records))
	fmt.Fprintln(output)

	if len(records) == 0 {
		fmt.Fprintln(output, "No records found.")
		return nil
	}

	for i, record := range records {
		if i > 0 {
			fmt.Fprintln(output)
		}

		fmt.Fprintf(output, "Record ID: %s\n", record.ID)
		fmt.Fprintf(output, "Request ID: %s\n", record.RequestID)
		fmt.Fprintf(output, "Timestamp: %s\n", record.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(output, "Model: %s", record.Model)
		if record.BackendModel != "" && record.BackendModel != record.Model {
			fmt.Fprintf(output, " (backend: %s)", record.BackendModel)
		}
		fmt.Fprintln(output)
		if record.Mode != "" {
			fmt.Fprintf(output, "Mode: %s\n", record.Mode)
		}
		fmt.Fprintf(output, "Status: %s", record.Status)
		if record.ErrorType != "" {
			fmt.Fprintf(output, " (%s)", record.ErrorType)
		}
		fmt.Fprintln(output)
		fmt.Fprintf(output, "Duration: %dms\n", record.DurationMS)
		fmt.Fprintf(output, "Chars: question %d, answer %d\n",
			record.QuestionChars, record.AnswerChars)

		// Show limited output for large result sets
		if i >= 9 && len(records) > 10 {
			remaining := len(records) - 10
			fmt.Fprintln(output)
			fmt.Fprintf(output, "... and %d more records\n", remaining)
			fmt.Fprintf(output, "Use --limit and --offset for pagination.\n")
			break
		}
	}

	return nil
}

func outputJournalJSON(output *os.File, records []*journal.Record) error {
	formatter := cli.NewFormatter(cli.FormatJSON)
	result := map[string]any{
		"total_records": len(records),
		"records":       records,
	}
	return formatter.FormatTo(output, result)
}

func outputJournalCSV(output *os.File, records []*journal.Record) error {
	formatter := &cli.CSVFormatter{
		Headers: []string{
			"id", "request_id", "created_at", "model", "backend_model",
			"conversation_id", "mode", "status", "error_type",
			"duration_ms", "question_chars", "answer_chars",
		},
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			record.ID,
			record.RequestID,
			record.CreatedAt.Format(time.RFC3339),
			record.Model,
			record.BackendModel,
			record.ConversationID,
			record.Mode,
			record.Status,
			record.ErrorType,
			strconv.FormatInt(record.DurationMS, 10),
			strconv.Itoa(record.QuestionChars),
			strconv.Itoa(record.AnswerChars),
		})
	}

	return formatter.FormatTo(output, rows)
}

func journalStats(cmd *cobra.Command, args []string) error {
	store, err := openJournalStore()
	if err != nil {
		return err
	}
	defer store.Close()

	since, until, err := parseTimeRange(journalFlags.timeRange)
	if err != nil {
		return err
	}

	// Stats walk everything in range, not one page.
	query := &journal.Query{Since: since, Until: until, Limit: 1 << 20}

	ctx := context.Background()
	records, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("journal", fmt.Errorf("query failed: %w", err))
	}

	return printJournalStats(os.Stdout, records, query)
}

func printJournalStats(output *os.File, records []*journal.Record, query *journal.Query) error {
	fmt.Fprintln(output, "Request Journal Summary")
	fmt.Fprintln(output, "=======================")

	if query.Since != nil && query.Until != nil {
		fmt.Fprintf(output, "Time Range: %s to %s\n",
			query.Since.Format("2006-01-02"),
			query.Until.Format("2006-01-02"))
	}
	fmt.Fprintf(output, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(output)

	var totalDuration, totalAnswerChars int64
	modelCounts := make(map[string]int)
	modeCounts := make(map[string]int)
	statusCounts := make(map[string]int)

	for _, record := range records {
		totalDuration += record.DurationMS
		totalAnswerChars += int64(record.AnswerChars)
		modelCounts[record.Model]++
		if record.Mode != "" {
			modeCounts[record.Mode]++
		}
		statusCounts[record.Status]++
	}

	fmt.Fprintln(output, "Summary:")
	fmt.Fprintln(output, "--------")
	fmt.Fprintf(output, "Total Requests: %d\n", len(records))
	if len(records) > 0 {
		fmt.Fprintf(output, "Average Duration: %dms\n", totalDuration/int64(len(records)))
	}
	fmt.Fprintf(output, "Total Answer Chars: %d\n", totalAnswerChars)
	fmt.Fprintln(output)

	if len(records) == 0 {
		return nil
	}

	fmt.Fprintln(output, "By Model:")
	for model, count := range modelCounts {
		pct := float64(count) / float64(len(records)) * 100
		fmt.Fprintf(output, "  %s: %d requests (%.0f%%)\n", model, count, pct)
	}
	fmt.Fprintln(output)

	fmt.Fprintln(output, "By Mode:")
	for mode, count := range modeCounts {
		pct := float64(count) / float64(len(records)) * 100
		fmt.Fprintf(output, "  %s: %d requests (%.0f%%)\n", mode, count, pct)
	}
	fmt.Fprintln(output)

	fmt.Fprintln(output, "By Status:")
	for status, count := range statusCounts {
		pct := float64(count) / float64(len(records)) * 100
		fmt.Fprintf(output, "  %s: %d requests (%.0f%%)\n", status, count, pct)
	}

	return nil
}

func pruneJournal(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	store, err := journal.NewSQLiteStore(cfg.Journal)
	if err != nil {
		return cli.NewCommandError("journal", fmt.Errorf("failed to open journal storage: %w", err))
	}
	defer store.Close()

	pruner := journal.NewPruner(store, cfg.Journal.Retention)

	ctx := context.Background()
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		return cli.NewCommandError("journal", fmt.Errorf("prune failed: %w", err))
	}

	fmt.Printf("✓ Pruned %d records older than %d days\n", deleted, cfg.Journal.Retention.Days)
	return nil
}
