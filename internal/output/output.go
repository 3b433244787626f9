package output

import (
	"context"

	"github.com/crimson-sun/cropcast/internal/model"
)

// Output defines the interface for predicted-table destinations.
type Output interface {
	Write(ctx context.Context, t *model.Table) error
	Close() error
}
