package cropcast

import (
	"context"
	"fmt"
	"io"

	"github.com/crimson-sun/cropcast/internal/artifacts"
	"github.com/crimson-sun/cropcast/internal/model"
	"github.com/crimson-sun/cropcast/internal/pipeline"
)

// Input is one observation to predict.
type Input struct {
	Year     int
	Area     float64 // hectares
	State    string
	District string
	Crop     string
	Season   string
}

// Prediction is a production estimate in tonnes.
type Prediction = model.Prediction

// RowError reports a row skipped by a lenient batch.
type RowError = model.RowError

// Result is a predicted batch: the input columns plus the prediction column.
type Result struct {
	Header   []string
	Rows     [][]string
	Rejected []RowError
}

// Cropcast predicts crop production. Safe for concurrent use.
type Cropcast struct {
	store    *artifacts.Store
	pipeline *pipeline.Pipeline
}

// New loads the artifacts. Any failure is an *ArtifactLoadError.
func New(opts ...Option) (*Cropcast, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	loadOpts := artifacts.Options{
		RuntimeLib:     o.runtimeLib,
		IntraOpThreads: o.intraOpThreads,
		ChunkSize:      o.chunkSize,
	}
	dir := o.artifactDir
	store, err := artifacts.NewStore(func() (*artifacts.Bundle, error) {
		return artifacts.Load(dir, loadOpts)
	})
	if err != nil {
		return nil, fmt.Errorf("cropcast: %w", err)
	}
	return &Cropcast{
		store:    store,
		pipeline: pipeline.New(store, pipeline.WithPolicy(o.policy)),
	}, nil
}

// Predict estimates production for a single input.
func (c *Cropcast) Predict(ctx context.Context, in Input) (Prediction, error) {
	rec := model.Record{
		Year:     in.Year,
		Area:     in.Area,
		State:    in.State,
		District: in.District,
		Crop:     in.Crop,
		Season:   in.Season,
	}
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	var p Prediction
	err := c.store.Use(func(b *artifacts.Bundle) error {
		var err error
		p, err = b.Engine.PredictOne(ctx, rec)
		return err
	})
	return p, err
}

// PredictBatch reads a CSV table from r and predicts every row.
func (c *Cropcast) PredictBatch(ctx context.Context, r io.Reader) (*Result, error) {
	res, err := c.pipeline.Process(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Result{
		Header:   res.Table.Header,
		Rows:     res.Table.Rows,
		Rejected: res.Rejected,
	}, nil
}

// Classes returns the labels accepted for field ("State", "District",
// "Crop", or "Season"), in code order.
func (c *Cropcast) Classes(field string) ([]string, error) {
	f, err := model.ParseField(field)
	if err != nil {
		return nil, fmt.Errorf("cropcast: %w", err)
	}
	var classes []string
	err = c.store.Use(func(b *artifacts.Bundle) error {
		classes = b.Engine.Classes(f)
		return nil
	})
	return classes, err
}

// Reload re-reads the artifacts. On failure the previous ones stay in use.
func (c *Cropcast) Reload() error {
	return c.store.Reload()
}

// Close releases model resources. Must be called when the instance is no
// longer needed.
func (c *Cropcast) Close() error {
	return c.store.Close()
}
