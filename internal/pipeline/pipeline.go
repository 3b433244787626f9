package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/crimson-sun/cropcast/internal/artifacts"
	"github.com/crimson-sun/cropcast/internal/engine"
	"github.com/crimson-sun/cropcast/internal/model"
	"github.com/crimson-sun/cropcast/internal/output"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPolicy sets the bad-row policy. Default: engine.Strict.
func WithPolicy(p engine.Policy) Option {
	return func(pl *Pipeline) { pl.policy = p }
}

// WithMaxRows caps the number of data rows accepted per batch. 0 = no cap.
func WithMaxRows(n int) Option {
	return func(pl *Pipeline) { pl.maxRows = n }
}

// WithTimeout bounds the wall-clock time of one batch. 0 = no bound.
func WithTimeout(d time.Duration) Option {
	return func(pl *Pipeline) { pl.timeout = d }
}

// Pipeline connects a CSV source, the current artifact bundle, and an output.
type Pipeline struct {
	store   *artifacts.Store
	policy  engine.Policy
	maxRows int
	timeout time.Duration
}

// New creates a Pipeline reading artifacts from store.
func New(store *artifacts.Store, opts ...Option) *Pipeline {
	p := &Pipeline{store: store, policy: engine.Strict}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Policy returns the configured bad-row policy.
func (p *Pipeline) Policy() engine.Policy {
	return p.policy
}

// Process reads a CSV table from r and predicts every row. A batch that
// outlives the configured timeout fails with *model.InputError wrapping
// context.DeadlineExceeded; cancellation by the caller is returned as is.
func (p *Pipeline) Process(ctx context.Context, r io.Reader) (*engine.BatchResult, error) {
	parent := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	t, err := ReadCSV(r, p.maxRows)
	if err != nil {
		return nil, fmt.Errorf("pipeline read: %w", err)
	}

	var res *engine.BatchResult
	err = p.store.Use(func(b *artifacts.Bundle) error {
		var err error
		res, err = b.Engine.PredictTable(ctx, t, p.policy)
		return err
	})
	if err != nil {
		if p.timeout > 0 && errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
			err = &model.InputError{
				Name:   "batch",
				Reason: fmt.Sprintf("%d rows did not finish within the %s processing limit", t.Len(), p.timeout),
				Err:    err,
			}
		}
		return nil, fmt.Errorf("pipeline process: %w", err)
	}

	slog.Debug("batch predicted",
		"rows", t.Len(),
		"predicted", res.Table.Len(),
		"rejected", len(res.Rejected),
		"policy", p.policy.String(),
	)
	return res, nil
}

// Run processes r and writes the predicted table to out.
func (p *Pipeline) Run(ctx context.Context, r io.Reader, out output.Output) (*engine.BatchResult, error) {
	res, err := p.Process(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := out.Write(ctx, res.Table); err != nil {
		return nil, fmt.Errorf("pipeline output: %w", err)
	}
	return res, nil
}
