package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// LinearModel is the on-disk form of a linear regression:
// prediction = intercept + sum(coefficients[column] * feature[column]).
type LinearModel struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// Linear evaluates a LinearModel against rows in a fixed column order.
type Linear struct {
	intercept float64
	weights   []float64
}

// LoadLinear reads a JSON LinearModel and binds its coefficients to columns.
func LoadLinear(path string, columns []string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("linear: failed to read model file: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("linear: failed to unmarshal model: %w", err)
	}
	return NewLinear(m, columns)
}

// NewLinear binds m to columns. Every column needs a coefficient and every
// coefficient must name a column.
func NewLinear(m LinearModel, columns []string) (*Linear, error) {
	weights := make([]float64, len(columns))
	used := make(map[string]bool, len(columns))
	for i, col := range columns {
		w, ok := m.Coefficients[col]
		if !ok {
			return nil, fmt.Errorf("linear: no coefficient for column %q", col)
		}
		weights[i] = w
		used[col] = true
	}
	var extra []string
	for col := range m.Coefficients {
		if !used[col] {
			extra = append(extra, col)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, fmt.Errorf("linear: coefficients for undeclared columns %v", extra)
	}
	return &Linear{intercept: m.Intercept, weights: weights}, nil
}

func (l *Linear) Predict(ctx context.Context, rows [][]float32) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		if err := checkWidth(len(l.weights), r); err != nil {
			return nil, err
		}
		score := l.intercept
		for j, w := range l.weights {
			score += w * float64(r[j])
		}
		out[i] = score
	}
	return out, nil
}

func (l *Linear) Width() int { return len(l.weights) }

func (l *Linear) Close() error { return nil }
