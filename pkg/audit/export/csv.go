package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"mercator-hq/ganymede/pkg/audit"
)

// CSVExporter exports audit records to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes audit records to the provided writer in CSV format.
// Timestamps are formatted as RFC 3339.
func (e *CSVExporter) Export(ctx context.Context, records []*audit.Record, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	// Write header row if configured
	if e.IncludeHeader {
		if err := writer.Write(e.getHeaderRow()); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	// Write data rows
	for _, record := range records {
		if err := writer.Write(e.recordToRow(record)); err != nil {
			return audit.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError("csv", len(records), err)
	}

	return nil
}

// getHeaderRow returns the CSV header row.
func (e *CSVExporter) getHeaderRow() []string {
	return []string{
		"id", "request_id", "identity", "transport", "model",
		"source_chars", "compacted_chars", "was_compacted", "transcript_hash",
		"section_count", "title", "outcome", "error_detail",
		"started_at", "recorded_at", "duration_ms",
	}
}

// recordToRow converts an audit record to a CSV row.
func (e *CSVExporter) recordToRow(record *audit.Record) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	return []string{
		record.ID,
		record.RequestID,
		record.Identity,
		record.Transport,
		record.Model,
		fmt.Sprintf("%d", record.SourceChars),
		fmt.Sprintf("%d", record.CompactedChars),
		fmt.Sprintf("%t", record.WasCompacted),
		record.TranscriptHash,
		fmt.Sprintf("%d", record.SectionCount),
		record.Title,
		record.Outcome,
		record.ErrorDetail,
		formatTime(record.StartedAt),
		formatTime(record.RecordedAt),
		fmt.Sprintf("%d", record.DurationMs),
	}
}
