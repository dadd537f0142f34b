package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/cli"
)

var lintFlags struct {
	file   string
	dir    string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate catalog files",
	Long: `Validate brief catalog files for syntax and structural errors.

The lint command parses catalog files and performs the same validation the
server applies at load time:
  - YAML syntax validation
  - Section structure (ids, titles, duplicates)
  - Fallback order references
  - Compaction vocabulary entries

Examples:
  # Lint single file
  ganymede lint --file catalog.yaml

  # Lint directory
  ganymede lint --dir catalogs/

  # JSON output for CI/CD
  ganymede lint --file catalog.yaml --format json`,
	RunE: lintCatalogs,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "catalog file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of catalog files")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintResult is the validation outcome for a single catalog file.
type LintResult struct {
	File     string      `json:"file"`
	Valid    bool        `json:"valid"`
	Sections int         `json:"sections,omitempty"`
	Errors   []LintError `json:"errors,omitempty"`
}

// LintError is a single problem found in a catalog file.
type LintError struct {
	Field   string `json:"field,omitempty"`
	Section string `json:"section,omitempty"`
	Message string `json:"message"`
}

func lintCatalogs(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string

	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}

	if lintFlags.dir != "" {
		matches, err := filepath.Glob(filepath.Join(lintFlags.dir, "*.yaml"))
		if err != nil {
			return fmt.Errorf("failed to list catalog files: %w", err)
		}
		ymlMatches, err := filepath.Glob(filepath.Join(lintFlags.dir, "*.yml"))
		if err != nil {
			return fmt.Errorf("failed to list catalog files: %w", err)
		}
		files = append(files, matches...)
		files = append(files, ymlMatches...)
	}

	if len(files) == 0 {
		return fmt.Errorf("no catalog files found")
	}

	results := make([]LintResult, 0, len(files))
	for _, file := range files {
		results = append(results, lintCatalogFile(file))
	}

	if lintFlags.format == "json" {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, results); err != nil {
			return err
		}
		for _, result := range results {
			if !result.Valid {
				return cli.NewCommandError("lint", fmt.Errorf("validation failed"))
			}
		}
		return nil
	}
	return printLintResults(results)
}

func lintCatalogFile(path string) LintResult {
	result := LintResult{
		File:  path,
		Valid: true,
	}

	cat, err := catalog.Load(path)
	if err != nil {
		result.Valid = false
		result.Errors = collectLintErrors(err)
		return result
	}

	result.Sections = cat.SectionCount()
	return result
}

// collectLintErrors flattens the catalog error types into report rows.
// Validation problems arrive as an ErrorList so one pass reports every
// problem in the file.
func collectLintErrors(err error) []LintError {
	var list *catalog.ErrorList
	if errors.As(err, &list) {
		out := make([]LintError, 0, len(list.Errors))
		for _, e := range list.Errors {
			out = append(out, toLintError(e))
		}
		return out
	}
	return []LintError{toLintError(err)}
}

func toLintError(err error) LintError {
	var vErr *catalog.ValidationError
	if errors.As(err, &vErr) {
		return LintError{
			Field:   vErr.Field,
			Section: vErr.SectionID,
			Message: vErr.Message,
		}
	}

	var lErr *catalog.LoadError
	if errors.As(err, &lErr) {
		return LintError{Message: lErr.Error()}
	}

	return LintError{Message: err.Error()}
}

func printLintResults(results []LintResult) error {
	totalErrors := 0

	for _, result := range results {
		fmt.Printf("Validating %s...\n", result.File)

		if result.Valid {
			fmt.Printf("✓ Catalog valid (%d sections)\n", result.Sections)
		}

		for _, e := range result.Errors {
			fmt.Printf("✗ Error: %s", e.Message)
			if e.Field != "" {
				fmt.Printf(" (at %s)", e.Field)
			}
			if e.Section != "" {
				fmt.Printf(" [section %s]", e.Section)
			}
			fmt.Println()
			totalErrors++
		}

		fmt.Println()
	}

	fmt.Println("Summary:")
	fmt.Printf("  %d file(s), %d error(s)\n", len(results), totalErrors)

	if totalErrors > 0 {
		return cli.NewCommandError("lint", fmt.Errorf("validation failed"))
	}

	return nil
}
