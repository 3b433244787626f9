package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/crimson-sun/cropcast/internal/engine/encoder"
	"github.com/crimson-sun/cropcast/internal/engine/features"
	"github.com/crimson-sun/cropcast/internal/engine/predictor"
	"github.com/crimson-sun/cropcast/internal/model"
)

const defaultChunkSize = 512

// Option configures an Engine.
type Option func(*Engine)

// WithChunkSize sets how many rows go to the predictor per call. Default: 512.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithPredictionColumn sets the name of the column appended to batch output.
func WithPredictionColumn(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.predictionColumn = name
		}
	}
}

// Engine orchestrates the encode → assemble → predict pipeline over one set of
// loaded artifacts. It is immutable after New and safe for concurrent use.
type Engine struct {
	encoders         [4]*encoder.Encoder // indexed by model.Field
	layout           *features.Layout
	model            predictor.Predictor
	chunkSize        int
	predictionColumn string
}

// New creates an Engine. encoders must contain exactly one encoder per
// categorical field, and the model width must match the layout.
func New(encoders []*encoder.Encoder, layout *features.Layout, m predictor.Predictor, opts ...Option) (*Engine, error) {
	e := &Engine{
		layout:           layout,
		model:            m,
		chunkSize:        defaultChunkSize,
		predictionColumn: model.DefaultPredictionColumn,
	}
	for _, enc := range encoders {
		f := enc.Field()
		if e.encoders[f] != nil {
			return nil, fmt.Errorf("engine: two encoders for field %s", f)
		}
		e.encoders[f] = enc
	}
	for _, f := range model.Fields {
		if e.encoders[f] == nil {
			return nil, fmt.Errorf("engine: no encoder for field %s", f)
		}
	}
	if w := m.Width(); w != 0 && w != layout.Width() {
		return nil, fmt.Errorf("engine: model takes %d features, layout declares %d", w, layout.Width())
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Classes returns the known labels for a categorical field, in code order.
func (e *Engine) Classes(f model.Field) []string {
	return e.encoders[f].Classes()
}

// Fields returns the categorical fields in presentation order.
func (e *Engine) Fields() []model.Field {
	return append([]model.Field(nil), model.Fields...)
}

// Layout returns the feature layout the model was trained with.
func (e *Engine) Layout() *features.Layout {
	return e.layout
}

// PredictionColumn returns the name of the column appended to batch output.
func (e *Engine) PredictionColumn() string {
	return e.predictionColumn
}

// Encode converts a record's labels to codes.
func (e *Engine) Encode(rec model.Record) (model.Encoded, error) {
	enc := model.Encoded{Year: float64(rec.Year), Area: rec.Area}
	for _, f := range model.Fields {
		code, err := e.encoders[f].Encode(rec.Label(f))
		if err != nil {
			return model.Encoded{}, err
		}
		enc.Codes[f] = code
	}
	return enc, nil
}

// PredictOne estimates production for a single record.
func (e *Engine) PredictOne(ctx context.Context, rec model.Record) (model.Prediction, error) {
	enc, err := e.Encode(rec)
	if err != nil {
		return 0, fmt.Errorf("engine: %w", err)
	}
	preds, err := e.model.Predict(ctx, [][]float32{e.layout.Vector(enc)})
	if err != nil {
		return 0, fmt.Errorf("engine: predict: %w", err)
	}
	if len(preds) != 1 {
		return 0, fmt.Errorf("engine: predictor returned %d values for 1 row", len(preds))
	}
	return model.Prediction(preds[0]), nil
}

// predictVectors runs the model over vectors in chunks, checking ctx between
// chunks so large uploads can be cut short.
func (e *Engine) predictVectors(ctx context.Context, vectors [][]float32) ([]float64, error) {
	out := make([]float64, 0, len(vectors))
	for start := 0; start < len(vectors); start += e.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+e.chunkSize, len(vectors))
		preds, err := e.model.Predict(ctx, vectors[start:end])
		if err != nil {
			return nil, err
		}
		if len(preds) != end-start {
			return nil, fmt.Errorf("predictor returned %d values for %d rows", len(preds), end-start)
		}
		out = append(out, preds...)
	}
	return out, nil
}

// Close releases the model.
func (e *Engine) Close() error {
	return e.model.Close()
}

// parseNumber coerces a table cell to a finite float.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
