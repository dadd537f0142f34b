package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/compactor"
)

var benchFlags struct {
	file       string
	iterations int
	target     int
	aggressive bool
	format     string
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark transcript compaction",
	Long: `Measure compaction latency on a local transcript.

The bench command runs the compactor repeatedly over the same input and
reports latency percentiles. Compaction is deterministic, so every
iteration does identical work; the spread comes from the runtime, not
the input.

Metrics Collected:
  - Compaction throughput (runs/sec)
  - Latency percentiles (p50, p95, p99, max)
  - Reduction achieved on the input

Examples:
  # Benchmark with defaults
  ganymede bench --file allhands.vtt

  # More iterations at a tight budget
  ganymede bench --file allhands.vtt --iterations 200 --target 20000`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().StringVarP(&benchFlags.file, "file", "f", "", "transcript file to compact")
	benchCmd.Flags().IntVar(&benchFlags.iterations, "iterations", 50, "number of compaction runs")
	benchCmd.Flags().IntVar(&benchFlags.target, "target", compactor.DefaultTargetChars, "character budget")
	benchCmd.Flags().BoolVar(&benchFlags.aggressive, "aggressive", false, "start reduction at the aggressive threshold")
	benchCmd.Flags().StringVar(&benchFlags.format, "format", "text", "output format: text, json")
}

// benchResults carries one benchmark run's measurements.
type benchResults struct {
	Iterations       int     `json:"iterations"`
	TotalSeconds     float64 `json:"total_seconds"`
	RunsPerSecond    float64 `json:"runs_per_second"`
	MinMs            float64 `json:"min_ms"`
	MeanMs           float64 `json:"mean_ms"`
	MedianMs         float64 `json:"median_ms"`
	P95Ms            float64 `json:"p95_ms"`
	P99Ms            float64 `json:"p99_ms"`
	MaxMs            float64 `json:"max_ms"`
	OriginalChars    int     `json:"original_chars"`
	FinalChars       int     `json:"final_chars"`
	ReductionPercent float64 `json:"reduction_percent"`
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchFlags.file == "" {
		return fmt.Errorf("--file must be specified")
	}
	if benchFlags.iterations < 1 {
		return fmt.Errorf("--iterations must be at least 1")
	}

	text, err := readTranscript(benchFlags.file)
	if err != nil {
		return cli.NewCommandError("bench", err)
	}

	fmt.Println("Ganymede Compaction Benchmark")
	fmt.Println("=============================")
	fmt.Printf("File: %s (%d chars)\n", benchFlags.file, len(text))
	fmt.Printf("Target: %d chars\n", benchFlags.target)
	fmt.Printf("Iterations: %d\n", benchFlags.iterations)
	fmt.Println()

	results := runCompactionLoop(text)

	if benchFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, results)
	}
	printBenchResults(results)
	return nil
}

func runCompactionLoop(text string) *benchResults {
	comp := compactor.New(compactor.DefaultTables())
	req := compactor.CompactionRequest{
		Text:        text,
		TargetChars: benchFlags.target,
		Aggressive:  benchFlags.aggressive,
	}

	progress := cli.NewProgressReporter(nil)
	progress.Start(int64(benchFlags.iterations))

	latencies := make([]time.Duration, 0, benchFlags.iterations)
	var last *compactor.CompactionResult

	start := time.Now()
	for i := 0; i < benchFlags.iterations; i++ {
		runStart := time.Now()
		last = comp.Compact(req)
		latencies = append(latencies, time.Since(runStart))
		progress.Update(int64(i + 1))
	}
	total := time.Since(start)
	progress.Finish()

	min, mean, median, p95, p99, max := latencyPercentiles(latencies)

	return &benchResults{
		Iterations:       benchFlags.iterations,
		TotalSeconds:     total.Seconds(),
		RunsPerSecond:    float64(benchFlags.iterations) / total.Seconds(),
		MinMs:            durationMs(min),
		MeanMs:           durationMs(mean),
		MedianMs:         durationMs(median),
		P95Ms:            durationMs(p95),
		P99Ms:            durationMs(p99),
		MaxMs:            durationMs(max),
		OriginalChars:    last.OriginalChars,
		FinalChars:       last.FinalChars,
		ReductionPercent: last.ReductionPercent,
	}
}

func latencyPercentiles(latencies []time.Duration) (min, mean, median, p95, p99, max time.Duration) {
	if len(latencies) == 0 {
		return
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	min = sorted[0]
	max = sorted[len(sorted)-1]

	var sum time.Duration
	for _, lat := range sorted {
		sum += lat
	}
	mean = sum / time.Duration(len(sorted))

	median = sorted[len(sorted)/2]
	p95 = sorted[percentileIndex(len(sorted), 0.95)]
	p99 = sorted[percentileIndex(len(sorted), 0.99)]

	return
}

// percentileIndex clamps so small sample counts never index past the end.
func percentileIndex(n int, p float64) int {
	idx := int(float64(n) * p)
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func printBenchResults(results *benchResults) {
	fmt.Println()
	fmt.Println("Results:")
	fmt.Println("--------")
	fmt.Printf("Runs:            %d in %.1fs\n", results.Iterations, results.TotalSeconds)
	fmt.Printf("Throughput:      %.2f runs/s\n", results.RunsPerSecond)
	fmt.Println()
	fmt.Println("Latency:")
	fmt.Printf("  Min:     %.2fms\n", results.MinMs)
	fmt.Printf("  Mean:    %.2fms\n", results.MeanMs)
	fmt.Printf("  Median:  %.2fms\n", results.MedianMs)
	fmt.Printf("  p95:     %.2fms\n", results.P95Ms)
	fmt.Printf("  p99:     %.2fms\n", results.P99Ms)
	fmt.Printf("  Max:     %.2fms\n", results.MaxMs)
	fmt.Println()
	fmt.Printf("Reduction:       %d -> %d chars (%.1f%%)\n",
		results.OriginalChars, results.FinalChars, results.ReductionPercent)
}
