// Package export provides audit record exporters for various formats.
//
// # Export Formats
//
// The export package provides exporters for:
//
//   - JSON: Single record or array, with optional pretty-printing
//   - CSV: Flat schema with header row and proper escaping
//
// # JSON Export
//
// The JSON exporter outputs audit records in JSON format:
//
//	// Create JSON exporter with pretty-printing
//	exporter := export.NewJSONExporter(true)
//
//	// Export records to stdout
//	err := exporter.Export(ctx, records, os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # CSV Export
//
// The CSV exporter outputs audit records in CSV format with proper escaping:
//
//	// Create CSV exporter with header row
//	exporter := export.NewCSVExporter(true)
//
//	// Export records to file
//	f, _ := os.Create("audit.csv")
//	defer f.Close()
//
//	err := exporter.Export(ctx, records, f)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Handling
//
// Exporters return ExportError if the export fails:
//
//   - JSON encoding errors
//   - CSV escaping errors
//   - Writer errors
package export
