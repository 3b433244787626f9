package multi

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimson-sun/cropcast/internal/model"
	"github.com/crimson-sun/cropcast/internal/output"
)

// Target is one named destination of a Multi. Name prefixes its errors.
type Target struct {
	Name string
	Out  output.Output
}

// Multi fans out tables to multiple output.Output implementations.
// Each Write call delivers the table to every target sequentially.
// If one target fails, the remaining targets still receive the table.
type Multi struct {
	targets []Target
}

// New creates a Multi that fans out to the given targets.
func New(targets ...Target) *Multi {
	return &Multi{targets: targets}
}

// Write delivers the table to every target. Errors are collected, labelled
// with the target name, and do not prevent delivery to later targets.
func (m *Multi) Write(ctx context.Context, t *model.Table) error {
	var errs []error
	for _, tg := range m.targets {
		if err := tg.Out.Write(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tg.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on every target, collecting labelled errors.
func (m *Multi) Close() error {
	var errs []error
	for _, tg := range m.targets {
		if err := tg.Out.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tg.Name, err))
		}
	}
	return errors.Join(errs...)
}
