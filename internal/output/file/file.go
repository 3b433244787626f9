package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/crimson-sun/cropcast/internal/model"
	"github.com/crimson-sun/cropcast/internal/output/csvout"
	"github.com/crimson-sun/cropcast/internal/output/xlsx"
)

const bufSize = 64 * 1024

// Format selects the encoding of the written file.
type Format int

const (
	FormatCSV Format = iota
	FormatXLSX
)

func (f Format) String() string {
	if f == FormatXLSX {
		return "xlsx"
	}
	return "csv"
}

// FormatFor picks the format from the path's extension. Anything other
// than .xlsx is written as CSV.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// ParseFormat accepts "csv" or "xlsx", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return FormatCSV, fmt.Errorf("unknown output format %q (want csv or xlsx)", s)
}

// Option configures a file Output.
type Option func(*Output)

// WithFormat overrides the extension-derived format.
func WithFormat(f Format) Option {
	return func(o *Output) { o.format = f }
}

// Output writes a predicted table to a file. Each Write replaces the file
// atomically: the table goes to a temporary file in the same directory which
// is renamed over path once fully written.
type Output struct {
	mu     sync.Mutex
	path   string
	format Format
}

// New creates a file output for path. The parent directory must exist.
func New(path string, opts ...Option) (*Output, error) {
	o := &Output{path: path, format: FormatFor(path)}
	for _, opt := range opts {
		opt(o)
	}
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("file output: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("file output: %s is not a directory", dir)
	}
	return o, nil
}

// Path returns the destination path.
func (o *Output) Path() string { return o.path }

// Format returns the encoding used for writes.
func (o *Output) Format() Format { return o.format }

// Write encodes t and atomically replaces the destination file.
func (o *Output) Write(ctx context.Context, t *model.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(o.path), "."+filepath.Base(o.path)+".*")
	if err != nil {
		return fmt.Errorf("file output: create: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	w := bufio.NewWriterSize(tmp, bufSize)
	if err := encode(w, o.format, t); err != nil {
		cleanup()
		return fmt.Errorf("file output: %w", err)
	}
	if err := w.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("file output: flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file output: close: %w", err)
	}
	if err := os.Rename(tmpName, o.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file output: rename: %w", err)
	}
	return nil
}

// Close is a no-op; each Write leaves a complete file behind.
func (o *Output) Close() error {
	return nil
}

func encode(w io.Writer, f Format, t *model.Table) error {
	if f == FormatXLSX {
		return xlsx.Encode(w, t)
	}
	return csvout.Encode(w, t)
}
