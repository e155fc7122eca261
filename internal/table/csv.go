package table

import (
	"encoding/csv"
	"errors"
	"io"
)

type csvCodec struct {
	r   *csv.Reader
	w   *csv.Writer
	col int
	out int
}

func newCSVCodec(r io.Reader, w io.Writer) *csvCodec {
	return &csvCodec{r: csv.NewReader(r), w: csv.NewWriter(w)}
}

func (c *csvCodec) begin(column, newColumn string) error {
	header, err := c.r.Read()
	if errors.Is(err, io.EOF) {
		return &ColumnError{Column: column, Row: -1}
	}
	if err != nil {
		return err
	}
	c.col = indexOf(header, column)
	if c.col < 0 {
		return &ColumnError{Column: column, Row: -1}
	}
	c.out = indexOf(header, newColumn)
	if c.out < 0 {
		header = append(header, newColumn)
		c.out = len(header) - 1
	}
	return c.w.Write(header)
}

func (c *csvCodec) read(n int) ([]any, []any, error) {
	var rows, cells []any
	for len(rows) < n {
		rec, err := c.r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, rec)
		cells = append(cells, rec[c.col])
	}
	if len(rows) == 0 {
		return nil, nil, io.EOF
	}
	return rows, cells, nil
}

func (c *csvCodec) write(rows []any, out []cellOut, _ bool) error {
	for i, row := range rows {
		rec := row.([]string)
		if c.out >= len(rec) {
			rec = append(rec, "")
		}
		if !out[i].null {
			rec[c.out] = out[i].text
		}
		if err := c.w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func (c *csvCodec) end() error {
	c.w.Flush()
	return c.w.Error()
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
