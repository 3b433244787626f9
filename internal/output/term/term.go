// Package term renders predicted tables for a terminal.
package term

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/crimson-sun/cropcast/internal/model"
	"github.com/crimson-sun/cropcast/internal/output"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2f4f4f")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Foreground(lipgloss.Color("#4CAF50")).Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Output renders tables with a rounded prediction column.
type Output struct {
	w        io.Writer
	column   string
	decimals int
}

// New creates a terminal Output. column names the prediction column, which
// is rounded to decimals places and right-aligned.
func New(w io.Writer, column string, decimals int) *Output {
	return &Output{w: w, column: column, decimals: decimals}
}

func (o *Output) Write(_ context.Context, t *model.Table) error {
	_, err := fmt.Fprintln(o.w, Render(output.RoundColumn(t, o.column, o.decimals), t.Index(o.column)))
	return err
}

func (o *Output) Close() error {
	return nil
}

// Render lays out t as a bordered table. highlight is the column index to
// right-align and colour, or -1.
func Render(t *model.Table, highlight int) string {
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(t.Header...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == highlight:
				return numberStyle
			default:
				return cellStyle
			}
		})
	return tbl.String()
}
