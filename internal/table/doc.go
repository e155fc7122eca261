// Package table applies the cleaner to one column of a CSV or JSON Lines
// table.
//
// Cells are processed in batches through the cleaner's untyped batch calls,
// so a JSONL cell holding a number or object fails with
// *pii.InvalidInputError carrying the 0-based data row. JSON null cells are
// passed through without being scanned.
//
// [CleanColumn] rewrites a column in place or into a new one, [DetectColumn]
// adds a column of {start,end,text} lists, and [DetectRows] flattens every
// span into a {row_index,start,end,text} record.
package table
