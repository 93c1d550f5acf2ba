package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/seijikohara/db-tester-sub006/pkg/dbaccess"
	"github.com/seijikohara/db-tester-sub006/pkg/delimited"
	"github.com/seijikohara/db-tester-sub006/pkg/operation"
	"github.com/seijikohara/db-tester-sub006/pkg/ordering"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Driver        string
	DSN           string
	Operation     string
	Ordering      string
	FixtureFormat string
	Scenario      string
}

// ApplyResult holds the outcome of applying fixtures to a database.
type ApplyResult struct {
	Operation string   `json:"operation"`
	Tables    []string `json:"tables"`
	Rows      int      `json:"rows"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <fixtures-dir>",
		Short: "Apply a fixture directory to a database",
		Long: `Apply a fixture directory to a database with a seeding operation.

Tables are written in dependency order: AUTO walks foreign keys,
DECLARED follows the load-order file, NONE keeps input order.
Deletion phases visit tables in reverse.

Exit codes:
  0 - All tables applied
  2 - Command error (malformed fixtures, connection or execution failure)

Examples:
  dbtester apply --driver sqlite --dsn test.db ./fixtures
  dbtester apply --driver postgres --dsn $DATABASE_URL --operation INSERT ./fixtures
  dbtester apply --config dbtester.yaml ./fixtures`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite|postgres)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "database connection string")
	cmd.Flags().StringVar(&opts.Operation, "operation", "", "seeding operation (CLEAN_INSERT, INSERT, ...)")
	cmd.Flags().StringVar(&opts.Ordering, "ordering", "", "table ordering strategy (AUTO|DECLARED|NONE)")
	cmd.Flags().StringVar(&opts.FixtureFormat, "fixture-format", "", "fixture file format (csv|tsv)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "narrow tagged tables to one scenario")

	return cmd
}

func runApply(opts *ApplyOptions, dir string, cmd *cobra.Command) error {
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

	opName := opts.Operation
	if opName == "" {
		opName = cfg.Operation
	}
	op, err := operation.Parse(opName)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadConfig, err.Error())
	}

	strategyName := opts.Ordering
	if strategyName == "" {
		strategyName = cfg.Ordering
	}
	strategy, err := ordering.ParseStrategy(strategyName)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadConfig, err.Error())
	}

	driver, dsn, err := resolveConnection(cfg, opts.Driver, opts.DSN)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadConfig, err.Error())
	}

	parser := delimited.Parser{Format: format, Scenario: opts.Scenario, SkipTables: cfg.SkipTables}
	ds, err := parser.ParseDir(dir)
	if err != nil {
		return outputParseError(formatter, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	handle, err := dbaccess.Open(ctx, driver, dsn)
	if err != nil {
		return outputCommandError(formatter, ErrCodeOpenFailed, err.Error())
	}
	defer func() {
		if closeErr := handle.Close(); closeErr != nil {
			formatter.VerboseLog("error closing database: %v", closeErr)
		}
	}()

	orderer := ordering.Orderer{Strategy: strategy, Oracle: handle.Access, Declared: ds.DeclaredOrder}
	order, err := orderer.Compute(ctx, ds.TableNames())
	if err != nil {
		return outputCommandError(formatter, ErrCodeExecFailed, err.Error())
	}

	formatter.VerboseLog("Applying %s to %d table(s)", op, ds.Len())

	executor := operation.Executor{Access: handle.Access, Logger: commandLogger(opts.RootOptions, formatter)}
	if err := executor.Apply(ctx, ds, op, order); err != nil {
		return outputCommandError(formatter, ErrCodeExecFailed, err.Error())
	}

	rows := 0
	for _, t := range ds.Tables() {
		rows += len(t.Rows)
	}
	result := ApplyResult{Operation: op.String(), Tables: order.Forward(), Rows: rows}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Applied %s: %d table(s), %d row(s)\n", result.Operation, len(result.Tables), result.Rows)
	return nil
}

// commandLogger returns a logger at the level implied by --verbose,
// writing to the diagnostic stream.
func commandLogger(opts *RootOptions, formatter *OutputFormatter) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(formatter.GetErrWriter(), &slog.HandlerOptions{
		Level: level,
	}))
}
