package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/compactor"
)

var compactFlags struct {
	file           string
	output         string
	catalogPath    string
	target         int
	aggressive     bool
	keepTimestamps bool
	stats          bool
	format         string
}

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Compact a transcript offline",
	Long: `Run the transcript compactor on a local file without calling the gateway.

The compactor reduces a transcript toward the character budget the same way
the server does before an extraction: structural parsing, consecutive-speaker
merging, speaker abbreviation, filler removal, and progressive reduction.
The output is deterministic, so the command doubles as a preview of exactly
what the extraction model would receive.

Examples:
  # Compact to the default 50000-character budget
  ganymede compact --file standup.vtt

  # Tighter budget, stats on stderr-free stdout
  ganymede compact --file allhands.txt --target 20000 --stats

  # Read from stdin, write to a file
  cat meeting.vtt | ganymede compact --file - --output compacted.txt

  # Use a custom catalog's compaction vocabulary
  ganymede compact --file standup.vtt --catalog catalog.yaml`,
	RunE: runCompact,
}

func init() {
	rootCmd.AddCommand(compactCmd)

	compactCmd.Flags().StringVarP(&compactFlags.file, "file", "f", "", "transcript file to compact (- for stdin)")
	compactCmd.Flags().StringVarP(&compactFlags.output, "output", "o", "", "output file (default: stdout)")
	compactCmd.Flags().StringVar(&compactFlags.catalogPath, "catalog", "", "catalog file supplying the compaction vocabulary")
	compactCmd.Flags().IntVar(&compactFlags.target, "target", compactor.DefaultTargetChars, "character budget")
	compactCmd.Flags().BoolVar(&compactFlags.aggressive, "aggressive", false, "start reduction at the aggressive threshold")
	compactCmd.Flags().BoolVar(&compactFlags.keepTimestamps, "keep-timestamps", false, "preserve utterance timestamps")
	compactCmd.Flags().BoolVar(&compactFlags.stats, "stats", false, "print compaction statistics instead of the content")
	compactCmd.Flags().StringVar(&compactFlags.format, "format", "text", "stats output format: text, json")
}

// compactionStats is the machine-readable shape of a compaction run.
type compactionStats struct {
	OriginalChars      int               `json:"original_chars"`
	FinalChars         int               `json:"final_chars"`
	ReductionPercent   float64           `json:"reduction_percent"`
	MinUtteranceLength int               `json:"min_utterance_length,omitempty"`
	WasProcessed       bool              `json:"was_processed"`
	WithinBudget       bool              `json:"within_budget"`
	SpeakerMap         map[string]string `json:"speaker_map,omitempty"`
}

func runCompact(cmd *cobra.Command, args []string) error {
	if compactFlags.file == "" {
		return fmt.Errorf("--file must be specified (use - for stdin)")
	}

	text, err := readTranscript(compactFlags.file)
	if err != nil {
		return cli.NewCommandError("compact", err)
	}

	tables, err := compactionTables(compactFlags.catalogPath)
	if err != nil {
		return cli.NewCommandError("compact", err)
	}

	result := compactor.New(tables).Compact(compactor.CompactionRequest{
		Text:               text,
		TargetChars:        compactFlags.target,
		PreserveTimestamps: compactFlags.keepTimestamps,
		Aggressive:         compactFlags.aggressive,
	})

	out := os.Stdout
	if compactFlags.output != "" {
		f, err := os.Create(compactFlags.output)
		if err != nil {
			return cli.NewCommandError("compact", fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	if compactFlags.stats {
		return writeCompactionStats(out, result)
	}

	if _, err := io.WriteString(out, result.Content); err != nil {
		return cli.NewCommandError("compact", err)
	}
	if compactFlags.output != "" {
		fmt.Printf("✓ Compacted %d -> %d chars (%.1f%% reduction)\n",
			result.OriginalChars, result.FinalChars, result.ReductionPercent)
	}
	return nil
}

func readTranscript(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	return string(data), nil
}

// compactionTables resolves the compaction vocabulary: a catalog file
// when one is given, the built-in catalog otherwise.
func compactionTables(path string) (compactor.Tables, error) {
	if path == "" {
		return catalog.Default().Tables(), nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return compactor.Tables{}, err
	}
	return cat.Tables(), nil
}

func writeCompactionStats(out *os.File, result *compactor.CompactionResult) error {
	stats := compactionStats{
		OriginalChars:      result.OriginalChars,
		FinalChars:         result.FinalChars,
		ReductionPercent:   result.ReductionPercent,
		MinUtteranceLength: result.MinUtteranceLength,
		WasProcessed:       result.WasProcessed,
		WithinBudget:       result.FinalChars <= compactFlags.target,
		SpeakerMap:         result.SpeakerMap,
	}

	if compactFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(out, stats)
	}

	fmt.Fprintln(out, "Compaction Results")
	fmt.Fprintln(out, "==================")
	fmt.Fprintf(out, "Original:   %d chars\n", stats.OriginalChars)
	fmt.Fprintf(out, "Final:      %d chars\n", stats.FinalChars)
	fmt.Fprintf(out, "Reduction:  %.1f%%\n", stats.ReductionPercent)
	if stats.WasProcessed {
		fmt.Fprintf(out, "Threshold:  %d chars minimum utterance length\n", stats.MinUtteranceLength)
	} else {
		fmt.Fprintln(out, "Input was already within budget; returned unchanged.")
	}
	if !stats.WithinBudget {
		fmt.Fprintln(out, "⚠  Output still exceeds the budget; the server would reject this transcript.")
	}
	if len(stats.SpeakerMap) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Speakers:")
		for full, short := range stats.SpeakerMap {
			fmt.Fprintf(out, "  %s -> %s\n", short, full)
		}
	}
	return nil
}
