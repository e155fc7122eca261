package table

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const maxLineBytes = 16 << 20

type jsonlCodec struct {
	sc     *bufio.Scanner
	w      *bufio.Writer
	column string
	target string
	row    int
}

func newJSONLCodec(r io.Reader, w io.Writer) *jsonlCodec {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &jsonlCodec{sc: sc, w: bufio.NewWriter(w)}
}

func (c *jsonlCodec) begin(column, newColumn string) error {
	c.column = column
	c.target = newColumn
	return nil
}

// read skips blank lines; they are not rows and are not written back.
func (c *jsonlCodec) read(n int) ([]any, []any, error) {
	var rows, cells []any
	for len(rows) < n && c.sc.Scan() {
		line := c.sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !gjson.Valid(line) {
			return nil, nil, fmt.Errorf("row %d: invalid JSON", c.row)
		}
		res := gjson.Get(line, c.column)
		if !res.Exists() {
			return nil, nil, &ColumnError{Column: c.column, Row: c.row}
		}
		var cell any
		switch res.Type {
		case gjson.Null:
		case gjson.String:
			cell = res.String()
		default:
			cell = res.Value()
		}
		rows = append(rows, line)
		cells = append(cells, cell)
		c.row++
	}
	if err := c.sc.Err(); err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, io.EOF
	}
	return rows, cells, nil
}

func (c *jsonlCodec) write(rows []any, out []cellOut, raw bool) error {
	for i, row := range rows {
		line := row.(string)
		var err error
		switch {
		case out[i].null && c.target == c.column:
		case out[i].null:
			line, err = sjson.SetRaw(line, c.target, "null")
		case raw:
			line, err = sjson.SetRaw(line, c.target, out[i].text)
		default:
			line, err = sjson.Set(line, c.target, out[i].text)
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", c.target, err)
		}
		if _, err := c.w.WriteString(line); err != nil {
			return err
		}
		if err := c.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

func (c *jsonlCodec) end() error {
	return c.w.Flush()
}
