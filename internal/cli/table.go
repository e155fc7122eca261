package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/piicleaner/internal/cleaner"
	"github.com/dshills/piicleaner/internal/table"
)

var (
	flagColumn      string
	flagNewColumn   string
	flagTableFormat string
	flagIn          string
	flagBatchSize   int
)

type tableOp func(ctx context.Context, c *cleaner.Cleaner, r io.Reader, w io.Writer, opts table.Options) error

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Detect or clean PII in a column of a CSV or JSON Lines table",
}

var tableCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Rewrite a column with its PII cleaned",
	Long: "Copy the table with --column cleaned. With --new-column the cleaned text is " +
		"written to that column and the source column is kept.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTable(cmd, true, table.CleanColumn)
	},
}

var tableDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Add a column listing the PII spans of each cell",
	Long: "Copy the table adding --new-column (default <column>_pii) holding, per row, a " +
		"JSON list of {start, end, text} records.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTable(cmd, false, table.DetectColumn)
	},
}

var tableRowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Print one JSON record per detected span",
	Long:  "Print a {row_index, start, end, text} JSON line for every span found in --column.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTable(cmd, false, table.DetectRows)
	},
}

func runTable(cmd *cobra.Command, needStrategy bool, op tableOp) error {
	cfg, c, err := loadCleaner()
	if err != nil {
		return err
	}
	opts := table.Options{
		Format:    table.Format(flagTableFormat),
		Column:    flagColumn,
		NewColumn: flagNewColumn,
		BatchSize: flagBatchSize,
	}
	if needStrategy {
		if opts.Strategy, err = cfg.StrategyValue(); err != nil {
			return err
		}
	}
	if opts.Format != table.CSV && opts.Format != table.JSONL {
		return fmt.Errorf("unsupported table format %q (valid: csv, jsonl)", flagTableFormat)
	}

	r := cmd.InOrStdin()
	if flagIn != "" {
		f, err := os.Open(flagIn)
		if err != nil {
			fail(cmd, "opening input: %v", err)
			return nil
		}
		defer f.Close()
		r = f
	}
	w := cmd.OutOrStdout()
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			fail(cmd, "creating output file: %v", err)
			return nil
		}
		defer f.Close()
		w = f
	}

	if err := op(cmd.Context(), c, r, w, opts); err != nil {
		fail(cmd, "%v", err)
	}
	return nil
}

func init() {
	for _, cmd := range []*cobra.Command{tableCleanCmd, tableDetectCmd, tableRowsCmd} {
		cmd.Flags().StringVar(&flagColumn, "column", "", "Column to scan (CSV header or JSON path)")
		cmd.Flags().StringVar(&flagTableFormat, "format", "csv", "Table format (csv, jsonl)")
		cmd.Flags().StringVar(&flagIn, "in", "", "Input file (default: stdin)")
		cmd.Flags().StringVar(&flagOut, "out", "", "Output file (default: stdout)")
		cmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "Rows per batch")
		_ = cmd.MarkFlagRequired("column")
		tableCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{tableCleanCmd, tableDetectCmd} {
		cmd.Flags().StringVar(&flagNewColumn, "new-column", "", "Write results to this column")
	}
	addStrategyFlag(tableCleanCmd)
}
