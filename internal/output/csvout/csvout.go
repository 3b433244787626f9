// Package csvout writes predicted tables as UTF-8 CSV.
package csvout

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/crimson-sun/cropcast/internal/model"
)

// ContentType is the MIME type of Encode's output.
const ContentType = "text/csv; charset=utf-8"

// Encode writes t (header first) to w.
func Encode(w io.Writer, t *model.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("csv output: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("csv output: %w", err)
	}
	return nil
}

// Output writes each table it receives to an io.Writer.
type Output struct {
	w io.Writer
}

// New creates a CSV Output over w. Closing the Output does not close w.
func New(w io.Writer) *Output {
	return &Output{w: w}
}

func (o *Output) Write(_ context.Context, t *model.Table) error {
	return Encode(o.w, t)
}

func (o *Output) Close() error {
	return nil
}
