// Package xlsx writes predicted tables as Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/crimson-sun/cropcast/internal/model"
)

// ContentType is the MIME type of Encode's output.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the worksheet the table is written to.
const SheetName = "Predictions"

// Encode writes t to w as a single-sheet workbook. Cells that parse as
// numbers are stored as numbers so they can be summed in a spreadsheet.
func Encode(w io.Writer, t *model.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx output: %w", err)
	}

	if err := setRow(f, 1, t.Header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil && len(t.Header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, bold)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx output: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("xlsx output: %w", err)
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		if rowNum > 1 {
			if v, err := strconv.ParseFloat(c, 64); err == nil {
				values[i] = v
				continue
			}
		}
		values[i] = c
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("xlsx output: row %d: %w", rowNum, err)
	}
	return nil
}

// Output writes each table it receives to an io.Writer as a workbook.
type Output struct {
	w io.Writer
}

// New creates an XLSX Output over w. Closing the Output does not close w.
func New(w io.Writer) *Output {
	return &Output{w: w}
}

func (o *Output) Write(_ context.Context, t *model.Table) error {
	return Encode(o.w, t)
}

func (o *Output) Close() error {
	return nil
}
