// Package predictor wraps trained regression models behind a single
// opaque interface.
package predictor

import (
	"context"
	"fmt"
)

// Predictor maps feature rows to numeric predictions.
type Predictor interface {
	// Predict returns one prediction per row. Every row must have Width() values.
	Predict(ctx context.Context, rows [][]float32) ([]float64, error)
	// Width returns the number of features the model consumes, or 0 if the
	// model accepts any width.
	Width() int
	Close() error
}

// Func adapts a plain function to a Predictor of the given width.
type Func struct {
	N  int
	Fn func(row []float32) float64
}

func (f Func) Predict(ctx context.Context, rows [][]float32) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		if err := checkWidth(f.N, r); err != nil {
			return nil, err
		}
		out[i] = f.Fn(r)
	}
	return out, nil
}

func (f Func) Width() int { return f.N }

func (f Func) Close() error { return nil }

func checkWidth(width int, row []float32) error {
	if width > 0 && len(row) != width {
		return fmt.Errorf("predictor: row has %d features, model expects %d", len(row), width)
	}
	return nil
}
