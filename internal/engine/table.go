package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/crimson-sun/cropcast/internal/engine/features"
	"github.com/crimson-sun/cropcast/internal/model"
)

// Policy decides what happens to a batch containing rows that cannot be encoded.
type Policy int

const (
	// Strict fails the whole batch on the first bad row. No partial output.
	Strict Policy = iota
	// Lenient predicts the good rows and reports the bad ones.
	Lenient
)

func (p Policy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// ParsePolicy converts "strict" or "lenient" to a Policy. Empty means Strict.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, fmt.Errorf("unknown batch policy %q (want strict or lenient)", s)
	}
}

// BatchResult is a predicted table plus, under Lenient, the rows left out of it.
type BatchResult struct {
	Table    *model.Table
	Rejected []model.RowError
}

// columns holds the positions of the input columns a batch needs.
type columns struct {
	year, area int
	fields     [4]int // indexed by model.Field
}

// resolveColumns checks the header for every required column.
func (e *Engine) resolveColumns(t *model.Table) (columns, error) {
	var c columns
	var missing []string

	find := func(names ...string) int {
		for _, n := range names {
			if i := t.Index(n); i >= 0 {
				return i
			}
		}
		missing = append(missing, names[0])
		return -1
	}
	c.year = find(yearAliases(e.layout.Column(features.SlotYear))...)
	c.area = find(e.layout.Column(features.SlotArea))
	for _, f := range model.Fields {
		c.fields[f] = find(f.String())
	}
	if len(missing) > 0 {
		return c, &model.SchemaError{Missing: missing}
	}

	seen := make(map[string]bool, len(t.Header))
	for _, h := range t.Header {
		if seen[h] {
			return c, &model.SchemaError{Detail: fmt.Sprintf("duplicate column %q", h)}
		}
		seen[h] = true
	}
	if t.Index(e.predictionColumn) >= 0 {
		return c, &model.SchemaError{Detail: fmt.Sprintf("input already has a %q column", e.predictionColumn)}
	}
	return c, nil
}

// yearAliases lets uploads use either training name for the year column.
func yearAliases(declared string) []string {
	names := []string{declared}
	for _, alt := range []string{"Crop_Year", "Year"} {
		if alt != declared {
			names = append(names, alt)
		}
	}
	return names
}

// PredictTable predicts every row of t and returns t's columns plus the
// prediction column, rows in input order.
func (e *Engine) PredictTable(ctx context.Context, t *model.Table, policy Policy) (*BatchResult, error) {
	cols, err := e.resolveColumns(t)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return nil, fmt.Errorf("engine: %w", &model.SchemaError{
				Detail: fmt.Sprintf("row %d has %d fields, header has %d", i+1, len(row), len(t.Header)),
			})
		}
	}

	var (
		encoded  []model.Encoded
		kept     []int
		rejected []model.RowError
	)
	switch policy {
	case Lenient:
		encoded, kept, rejected = e.encodeRowsLenient(t, cols)
	default:
		encoded, err = e.encodeRowsStrict(t, cols)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		kept = make([]int, len(encoded))
		for i := range kept {
			kept[i] = i
		}
	}

	vectors := make([][]float32, len(encoded))
	for i, enc := range encoded {
		vectors[i] = e.layout.Vector(enc)
	}
	preds, err := e.predictVectors(ctx, vectors)
	if err != nil {
		return nil, fmt.Errorf("engine: predict: %w", err)
	}

	out := &model.Table{
		Header: append(append([]string(nil), t.Header...), e.predictionColumn),
		Rows:   make([][]string, len(kept)),
	}
	for i, src := range kept {
		row := make([]string, 0, len(t.Header)+1)
		row = append(row, t.Rows[src]...)
		out.Rows[i] = append(row, strconv.FormatFloat(preds[i], 'f', -1, 64))
	}
	return &BatchResult{Table: out, Rejected: rejected}, nil
}

// encodeRowsStrict encodes column by column; any unknown label or
// unparseable number fails the batch.
func (e *Engine) encodeRowsStrict(t *model.Table, cols columns) ([]model.Encoded, error) {
	encoded := make([]model.Encoded, len(t.Rows))
	for _, f := range model.Fields {
		labels := make([]string, len(t.Rows))
		for i, row := range t.Rows {
			labels[i] = row[cols.fields[f]]
		}
		codes, err := e.encoders[f].EncodeColumn(labels)
		if err != nil {
			return nil, err
		}
		for i, c := range codes {
			encoded[i].Codes[f] = c
		}
	}
	for i, row := range t.Rows {
		if err := e.coerceNumbers(&encoded[i], t, row, cols, i+1); err != nil {
			return nil, err
		}
	}
	return encoded, nil
}

// encodeRowsLenient encodes row by row and sets aside rows that fail.
func (e *Engine) encodeRowsLenient(t *model.Table, cols columns) ([]model.Encoded, []int, []model.RowError) {
	var (
		encoded  []model.Encoded
		kept     []int
		rejected []model.RowError
	)
	for i, row := range t.Rows {
		enc, err := e.encodeRow(t, row, cols, i+1)
		if err != nil {
			rejected = append(rejected, model.RowError{Row: i + 1, Err: err})
			continue
		}
		encoded = append(encoded, enc)
		kept = append(kept, i)
	}
	return encoded, kept, rejected
}

func (e *Engine) encodeRow(t *model.Table, row []string, cols columns, rowNum int) (model.Encoded, error) {
	var enc model.Encoded
	for _, f := range model.Fields {
		code, err := e.encoders[f].Encode(row[cols.fields[f]])
		if err != nil {
			err.(*model.UnknownCategoryError).Row = rowNum
			return model.Encoded{}, err
		}
		enc.Codes[f] = code
	}
	if err := e.coerceNumbers(&enc, t, row, cols, rowNum); err != nil {
		return model.Encoded{}, err
	}
	return enc, nil
}

func (e *Engine) coerceNumbers(enc *model.Encoded, t *model.Table, row []string, cols columns, rowNum int) error {
	var ok bool
	if enc.Year, ok = parseNumber(row[cols.year]); !ok {
		return notANumber(t.Header[cols.year], row[cols.year], rowNum)
	}
	if enc.Area, ok = parseNumber(row[cols.area]); !ok {
		return notANumber(t.Header[cols.area], row[cols.area], rowNum)
	}
	return nil
}

func notANumber(col, val string, rowNum int) error {
	return &model.SchemaError{Detail: fmt.Sprintf("row %d column %q: %q is not a number", rowNum, col, val)}
}
