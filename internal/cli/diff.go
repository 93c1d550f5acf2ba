package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seijikohara/db-tester-sub006/pkg/compare"
	"github.com/seijikohara/db-tester-sub006/pkg/delimited"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	FixtureFormat string
	Scenario      string
}

// DiffResult holds the outcome of comparing two fixture directories.
type DiffResult struct {
	Equal    bool     `json:"equal"`
	Findings int      `json:"findings"`
	Report   []string `json:"report,omitempty"`
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <expected-dir> <actual-dir>",
		Short: "Compare two fixture directories",
		Long: `Compare two fixture directories table by table.

Row order and column order are ignored. Cells are compared after
normalization, so "1.50" matches "1.5" and timestamps match across
layouts. Columns excluded in the configuration file are skipped.

Exit codes:
  0 - Directories hold equivalent datasets
  1 - Differences found
  2 - Command error (malformed fixtures, missing directory)

Examples:
  dbtester diff ./expected ./actual
  dbtester diff ./expected ./actual --format json
  dbtester diff ./expected ./actual --config dbtester.yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.FixtureFormat, "fixture-format", "", "fixture file format (csv|tsv)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "narrow tagged tables to one scenario")

	return cmd
}

func runDiff(opts *DiffOptions, expectedDir, actualDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadConfig, err.Error())
	}
	format, err := resolveFormat(cfg, opts.FixtureFormat)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadConfig, err.Error())
	}

	parser := delimited.Parser{Format: format, Scenario: opts.Scenario, SkipTables: cfg.SkipTables}
	expected, err := parser.ParseDir(expectedDir)
	if err != nil {
		return outputParseError(formatter, err)
	}
	actual, err := parser.ParseDir(actualDir)
	if err != nil {
		return outputParseError(formatter, err)
	}

	formatter.VerboseLog("Comparing %d expected table(s) against %d actual table(s)", expected.Len(), actual.Len())

	res := cfg.Comparator().Compare(expected, actual)

	if opts.Format == "json" {
		return outputDiffJSON(formatter, res)
	}
	return outputDiffText(formatter, res)
}

// reportLines splits the rendered comparison into one line per finding.
func reportLines(res *compare.Result) []string {
	s := strings.TrimRight(res.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// outputDiffJSON outputs the comparison result as JSON.
func outputDiffJSON(formatter *OutputFormatter, res *compare.Result) error {
	findings := res.Count()
	response := CLIResponse{
		Status: "ok",
		Data: DiffResult{
			Equal:    res.Empty(),
			Findings: findings,
			Report:   reportLines(res),
		},
	}
	if findings > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DIFF_FOUND",
			Message: fmt.Sprintf("%d difference(s) found", findings),
		}
	}

	encoder := json.NewEncoder(formatter.Writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if findings > 0 {
		// Differences = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d difference(s) found", findings))
	}
	return nil
}

// outputDiffText outputs the comparison result as text.
func outputDiffText(formatter *OutputFormatter, res *compare.Result) error {
	w := formatter.Writer

	if res.Empty() {
		fmt.Fprintln(w, "✓ Datasets match")
		return nil
	}

	findings := res.Count()
	fmt.Fprintf(w, "✗ %d difference(s) found\n", findings)
	fmt.Fprintln(w)
	for _, line := range reportLines(res) {
		fmt.Fprintf(w, "  %s\n", line)
	}

	// Differences = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("%d difference(s) found", findings))
}
