package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/crimson-sun/cropcast/internal/model"
)

// ReadCSV parses a batch upload. The first record is the header. A UTF-8 or
// UTF-16 byte order mark is honoured and stripped. Header names are trimmed;
// data cells are kept verbatim since trained labels may carry padding.
// maxRows <= 0 means no limit.
func ReadCSV(r io.Reader, maxRows int) (*model.Table, error) {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(dec)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &model.SchemaError{Detail: "file is empty"}
	}
	if err != nil {
		return nil, schemaFromCSV(err)
	}
	t := &model.Table{Header: trimAll(header)}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, schemaFromCSV(err)
		}
		if maxRows > 0 && len(t.Rows) >= maxRows {
			return nil, &model.SchemaError{Detail: fmt.Sprintf("more than %d data rows", maxRows)}
		}
		t.Rows = append(t.Rows, rec)
	}
	if len(t.Rows) == 0 {
		return nil, &model.SchemaError{Detail: "no data rows"}
	}
	return t, nil
}

func schemaFromCSV(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		if errors.Is(pe.Err, csv.ErrFieldCount) {
			return &model.SchemaError{Detail: fmt.Sprintf("line %d: wrong number of fields", pe.Line)}
		}
		return &model.SchemaError{Detail: pe.Error()}
	}
	return fmt.Errorf("read csv: %w", err)
}

func trimAll(cells []string) []string {
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}
