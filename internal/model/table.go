package model

// DefaultPredictionColumn is the name of the column appended to batch output.
const DefaultPredictionColumn = "Predicted_Production (Tonnes)"

// Table is a rectangular set of string cells with a header row.
// Rows keep the order in which they were read.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// RowError describes a batch row excluded from output under the lenient policy.
// Row is 1-based and counts data rows only (the header is not row 1).
type RowError struct {
	Row int
	Err error
}
