package table

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/piicleaner/internal/cleaner"
	"github.com/dshills/piicleaner/internal/pii"
	"github.com/dshills/piicleaner/internal/redact"
)

const csvInput = `id,text
1,My NINO is AB123456C
2,"Contact me at john.doe@example.com or call 07700 900123"
3,No sensitive information in this text
`

func newCleaner(t *testing.T) *cleaner.Cleaner {
	t.Helper()
	c, err := cleaner.New(cleaner.All(), cleaner.WithWorkers(2))
	require.NoError(t, err)
	return c
}

func readCSV(t *testing.T, s string) [][]string {
	t.Helper()
	recs, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestCleanColumn_CSVInPlace(t *testing.T) {
	var out bytes.Buffer
	err := CleanColumn(context.Background(), newCleaner(t), strings.NewReader(csvInput), &out, Options{
		Format:    CSV,
		Column:    "text",
		Strategy:  redact.Replace,
		BatchSize: 2,
	})
	require.NoError(t, err)

	recs := readCSV(t, out.String())
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"id", "text"}, recs[0])
	assert.Equal(t, "My NINO is [REDACTED]", recs[1][1])
	assert.Equal(t, "Contact me at [REDACTED] or call [REDACTED]", recs[2][1])
	assert.Equal(t, "No sensitive information in this text", recs[3][1])
}

func TestCleanColumn_CSVNewColumn(t *testing.T) {
	var out bytes.Buffer
	err := CleanColumn(context.Background(), newCleaner(t), strings.NewReader(csvInput), &out, Options{
		Format:    CSV,
		Column:    "text",
		NewColumn: "clean",
		Strategy:  redact.Redact,
	})
	require.NoError(t, err)

	recs := readCSV(t, out.String())
	assert.Equal(t, []string{"id", "text", "clean"}, recs[0])
	assert.Equal(t, "My NINO is AB123456C", recs[1][1])
	assert.Equal(t, "My NINO is ", recs[1][2])
}

func TestCleanColumn_MissingColumn(t *testing.T) {
	err := CleanColumn(context.Background(), newCleaner(t), strings.NewReader(csvInput), &bytes.Buffer{}, Options{
		Format: CSV,
		Column: "comment",
	})
	var colErr *ColumnError
	require.True(t, errors.As(err, &colErr), "err = %v", err)
	assert.Equal(t, "comment", colErr.Column)
	assert.Contains(t, err.Error(), "header")
}

func TestDetectColumn_CSV(t *testing.T) {
	var out bytes.Buffer
	err := DetectColumn(context.Background(), newCleaner(t), strings.NewReader(csvInput), &out, Options{
		Format: CSV,
		Column: "text",
	})
	require.NoError(t, err)

	recs := readCSV(t, out.String())
	assert.Equal(t, "text_pii", recs[0][2])

	var spans []map[string]any
	require.NoError(t, json.Unmarshal([]byte(recs[1][2]), &spans))
	require.Len(t, spans, 1)
	assert.EqualValues(t, 11, spans[0]["start"])
	assert.EqualValues(t, 20, spans[0]["end"])
	assert.Equal(t, "AB123456C", spans[0]["text"])
	assert.NotContains(t, spans[0], "Detector")

	assert.Equal(t, "[]", recs[3][2])
}

const jsonlInput = `{"id":1,"body":{"text":"Case ID: 987654, amount: £1,234.50"}}
{"id":2,"body":{"text":null}}

{"id":3,"body":{"text":"IP address: 192.168.1.100"}}
`

func TestCleanColumn_JSONL(t *testing.T) {
	var out bytes.Buffer
	err := CleanColumn(context.Background(), newCleaner(t), strings.NewReader(jsonlInput), &out, Options{
		Format:    JSONL,
		Column:    "body.text",
		NewColumn: "clean",
		Strategy:  redact.Redact,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Case ID: , amount: ", gjson.Get(lines[0], "clean").String())
	assert.Equal(t, "Case ID: 987654, amount: £1,234.50", gjson.Get(lines[0], "body.text").String())
	assert.Equal(t, gjson.Null, gjson.Get(lines[1], "clean").Type)
	assert.Equal(t, "IP address: ", gjson.Get(lines[2], "clean").String())
}

func TestDetectColumn_JSONL(t *testing.T) {
	var out bytes.Buffer
	err := DetectColumn(context.Background(), newCleaner(t), strings.NewReader(jsonlInput), &out, Options{
		Format:    JSONL,
		Column:    "body.text",
		NewColumn: "pii",
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	texts := gjson.Get(lines[0], "pii.#.text").Array()
	require.Len(t, texts, 2)
	assert.Equal(t, "987654", texts[0].String())
	assert.Equal(t, "£1,234.50", texts[1].String())
	assert.Equal(t, gjson.Null, gjson.Get(lines[1], "pii").Type)
}

func TestCleanColumn_JSONLNonString(t *testing.T) {
	input := `{"text":"a@b.com"}
{"text":"fine"}
{"text":42}
`
	err := CleanColumn(context.Background(), newCleaner(t), strings.NewReader(input), &bytes.Buffer{}, Options{
		Format:    JSONL,
		Column:    "text",
		BatchSize: 2,
	})
	var inputErr *pii.InvalidInputError
	require.True(t, errors.As(err, &inputErr), "err = %v", err)
	assert.Equal(t, 2, inputErr.Index)
	assert.EqualValues(t, 42, inputErr.Value)
}

func TestCleanColumn_JSONLMissingColumn(t *testing.T) {
	input := `{"text":"a"}
{"other":"b"}
`
	err := CleanColumn(context.Background(), newCleaner(t), strings.NewReader(input), &bytes.Buffer{}, Options{
		Format: JSONL,
		Column: "text",
	})
	var colErr *ColumnError
	require.True(t, errors.As(err, &colErr), "err = %v", err)
	assert.Equal(t, 1, colErr.Row)
}

func TestDetectRows(t *testing.T) {
	var out bytes.Buffer
	err := DetectRows(context.Background(), newCleaner(t), strings.NewReader(csvInput), &out, Options{
		Format:    CSV,
		Column:    "text",
		BatchSize: 1,
	})
	require.NoError(t, err)

	dec := json.NewDecoder(&out)
	var got []RowSpan
	for dec.More() {
		var rs RowSpan
		require.NoError(t, dec.Decode(&rs))
		got = append(got, rs)
	}
	want := []RowSpan{
		{RowIndex: 0, Start: 11, End: 20, Text: "AB123456C"},
		{RowIndex: 1, Start: 14, End: 34, Text: "john.doe@example.com"},
		{RowIndex: 1, Start: 43, End: 55, Text: "07700 900123"},
	}
	assert.Equal(t, want, got)
}

func TestUnknownFormat(t *testing.T) {
	err := CleanColumn(context.Background(), newCleaner(t), strings.NewReader(""), &bytes.Buffer{}, Options{
		Format: "parquet",
		Column: "text",
	})
	assert.ErrorContains(t, err, "parquet")
}
