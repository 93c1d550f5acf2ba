package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seijikohara/db-tester-sub006/pkg/dataset"
	"github.com/seijikohara/db-tester-sub006/pkg/dbaccess"
	"github.com/seijikohara/db-tester-sub006/pkg/delimited"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	Driver        string
	DSN           string
	Tables        []string
	FixtureFormat string
}

// SnapshotResult holds the outcome of writing a snapshot.
type SnapshotResult struct {
	Dir    string         `json:"dir"`
	Tables []TableSummary `json:"tables"`
	Rows   int            `json:"rows"`
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot <output-dir>",
		Short: "Write live table contents as fixture files",
		Long: `Fetch tables from a database and write them as fixture files.

The written directory parses back into the same dataset, so a snapshot
can seed later runs or serve as the expected side of a diff.

Exit codes:
  0 - Snapshot written
  2 - Command error (connection, fetch, or write failure)

Examples:
  dbtester snapshot --driver sqlite --dsn test.db --tables USERS,ORDERS ./out
  dbtester snapshot --config dbtester.yaml --tables USERS ./out`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite|postgres)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "database connection string")
	cmd.Flags().StringSliceVar(&opts.Tables, "tables", nil, "tables to snapshot (required)")
	cmd.Flags().StringVar(&opts.FixtureFormat, "fixture-format", "", "fixture file format (csv|tsv)")
	_ = cmd.MarkFlagRequired("tables")

	return cmd
}

func runSnapshot(opts *SnapshotOptions, dir string, cmd *cobra.Command) error {
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
	driver, dsn, err := resolveConnection(cfg, opts.Driver, opts.DSN)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadConfig, err.Error())
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

	ds := dataset.New()
	for _, name := range opts.Tables {
		formatter.VerboseLog("Fetching table %s", name)
		t, err := handle.Access.FetchTable(ctx, name)
		if err != nil {
			return outputCommandError(formatter, ErrCodeFetchFailed, err.Error())
		}
		if err := ds.Append(t); err != nil {
			return outputCommandError(formatter, ErrCodeGeneric, err.Error())
		}
	}

	if err := delimited.Write(ds, dir, format); err != nil {
		return outputCommandError(formatter, ErrCodeWriteFailed, err.Error())
	}

	summary := summarize(ds)
	result := SnapshotResult{Dir: dir, Tables: summary.Tables, Rows: summary.Rows}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Snapshot written: %d table(s), %d row(s) in %s\n", len(result.Tables), result.Rows, dir)
	return nil
}
