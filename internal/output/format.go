package output

import (
	"strconv"

	"github.com/crimson-sun/cropcast/internal/model"
)

// RoundColumn returns a copy of t with the named column's numeric cells
// rendered to the given number of decimals. Non-numeric cells are left as is.
// t is not modified. If the column does not exist, the copy is unchanged.
func RoundColumn(t *model.Table, column string, decimals int) *model.Table {
	out := &model.Table{
		Header: append([]string(nil), t.Header...),
		Rows:   make([][]string, len(t.Rows)),
	}
	idx := t.Index(column)
	for i, row := range t.Rows {
		r := append([]string(nil), row...)
		if idx >= 0 && idx < len(r) {
			if v, err := strconv.ParseFloat(r[idx], 64); err == nil {
				r[idx] = strconv.FormatFloat(v, 'f', decimals, 64)
			}
		}
		out.Rows[i] = r
	}
	return out
}
