package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dshills/piicleaner/internal/cleaner"
	"github.com/dshills/piicleaner/internal/pii"
	"github.com/dshills/piicleaner/internal/redact"
)

// Format names a table encoding.
type Format string

const (
	CSV   Format = "csv"
	JSONL Format = "jsonl"
)

const defaultBatchSize = 1024

// Options describes a column operation.
type Options struct {
	Format Format
	// Column is a CSV header name or a gjson path into each JSONL object.
	Column string
	// NewColumn receives the result. Empty means overwrite Column for clean
	// and Column+"_pii" for detect.
	NewColumn string
	Strategy  redact.Strategy
	BatchSize int
}

// ColumnError reports a column that is missing from the header or a row.
type ColumnError struct {
	Column string
	Row    int
}

func (e *ColumnError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("column %q not found in header", e.Column)
	}
	return fmt.Sprintf("column %q not found in row %d", e.Column, e.Row)
}

// RowSpan is one detected span tagged with its 0-based data row.
type RowSpan struct {
	RowIndex int    `json:"row_index"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Text     string `json:"text"`
}

// cellOut is a value written back into a row.
type cellOut struct {
	text string
	null bool
}

// codec reads rows in batches and writes them back with one column set.
type codec interface {
	begin(column, newColumn string) error
	// read returns up to n rows and the target cell of each (nil for a null
	// cell), or io.EOF when the input is exhausted.
	read(n int) (rows []any, cells []any, err error)
	write(rows []any, out []cellOut, raw bool) error
	end() error
}

func newCodec(f Format, r io.Reader, w io.Writer) (codec, error) {
	switch f {
	case CSV, "":
		return newCSVCodec(r, w), nil
	case JSONL:
		return newJSONLCodec(r, w), nil
	default:
		return nil, fmt.Errorf("unknown table format %q (valid: csv, jsonl)", f)
	}
}

// CleanColumn copies the table from r to w with Column cleaned. If NewColumn
// is set the cleaned text goes there and Column is left as it was.
func CleanColumn(ctx context.Context, c *cleaner.Cleaner, r io.Reader, w io.Writer, opts Options) error {
	target := opts.NewColumn
	if target == "" {
		target = opts.Column
	}
	return process(ctx, r, w, opts, target, false, func(ctx context.Context, cells []any) ([]string, error) {
		return c.CleanValues(ctx, cells, opts.Strategy)
	})
}

// DetectColumn copies the table from r to w adding a column that holds, per
// row, a JSON list of {start,end,text} records for the spans in Column.
func DetectColumn(ctx context.Context, c *cleaner.Cleaner, r io.Reader, w io.Writer, opts Options) error {
	target := opts.NewColumn
	if target == "" {
		target = opts.Column + "_pii"
	}
	return process(ctx, r, w, opts, target, true, func(ctx context.Context, cells []any) ([]string, error) {
		found, err := c.DetectValues(ctx, cells)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(found))
		for i, spans := range found {
			if spans == nil {
				spans = []pii.Span{}
			}
			data, err := json.Marshal(spans)
			if err != nil {
				return nil, err
			}
			out[i] = string(data)
		}
		return out, nil
	})
}

// DetectRows writes one JSON line per detected span in Column, tagged with
// its 0-based row index. Null cells produce nothing.
func DetectRows(ctx context.Context, c *cleaner.Cleaner, r io.Reader, w io.Writer, opts Options) error {
	in, err := newCodec(opts.Format, r, io.Discard)
	if err != nil {
		return err
	}
	if err := in.begin(opts.Column, opts.Column); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	base := 0
	for {
		rows, cells, err := in.read(batchSize(opts))
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		idx, values := nonNull(cells)
		found, err := c.DetectValues(ctx, values)
		if err != nil {
			return rebase(err, base, idx)
		}
		for k, spans := range found {
			for _, s := range spans {
				rec := RowSpan{RowIndex: base + idx[k], Start: s.Start, End: s.End, Text: s.Text}
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
		}
		base += len(rows)
	}
}

type transform func(ctx context.Context, cells []any) ([]string, error)

func process(ctx context.Context, r io.Reader, w io.Writer, opts Options, target string, raw bool, fn transform) error {
	tc, err := newCodec(opts.Format, r, w)
	if err != nil {
		return err
	}
	if err := tc.begin(opts.Column, target); err != nil {
		return err
	}
	base := 0
	for {
		rows, cells, err := tc.read(batchSize(opts))
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		idx, values := nonNull(cells)
		results, err := fn(ctx, values)
		if err != nil {
			return rebase(err, base, idx)
		}
		out := make([]cellOut, len(rows))
		for i := range out {
			out[i].null = true
		}
		for k, i := range idx {
			out[i] = cellOut{text: results[k]}
		}
		if err := tc.write(rows, out, raw); err != nil {
			return err
		}
		base += len(rows)
	}
	return tc.end()
}

func batchSize(opts Options) int {
	if opts.BatchSize > 0 {
		return opts.BatchSize
	}
	return defaultBatchSize
}

// nonNull drops nil cells, returning the positions of those kept.
func nonNull(cells []any) ([]int, []any) {
	idx := make([]int, 0, len(cells))
	values := make([]any, 0, len(cells))
	for i, c := range cells {
		if c == nil {
			continue
		}
		idx = append(idx, i)
		values = append(values, c)
	}
	return idx, values
}

// rebase rewrites a batch-relative InvalidInputError to a table row index.
func rebase(err error, base int, idx []int) error {
	var inputErr *pii.InvalidInputError
	if errors.As(err, &inputErr) && inputErr.Index < len(idx) {
		return &pii.InvalidInputError{Index: base + idx[inputErr.Index], Value: inputErr.Value}
	}
	return err
}
