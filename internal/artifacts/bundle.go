// Package artifacts loads the persisted model, encoders, and feature order
// into an immutable Bundle and keeps the current Bundle available to requests.
package artifacts

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/crimson-sun/cropcast/internal/engine"
	"github.com/crimson-sun/cropcast/internal/engine/encoder"
	"github.com/crimson-sun/cropcast/internal/engine/features"
	"github.com/crimson-sun/cropcast/internal/engine/predictor"
	"github.com/crimson-sun/cropcast/internal/model"
)

// Options tune how a Bundle is built.
type Options struct {
	RuntimeLib     string // ONNX Runtime shared library; empty = next to the model
	IntraOpThreads int
	ChunkSize      int
}

// Bundle is one consistent set of loaded artifacts. Immutable.
type Bundle struct {
	Engine   *engine.Engine
	Dir      string
	Manifest Manifest
	LoadedAt time.Time

	paths []string
}

// Paths returns every file the bundle was loaded from, including the manifest.
func (b *Bundle) Paths() []string {
	out := make([]string, len(b.paths))
	copy(out, b.paths)
	return out
}

// Close releases the model.
func (b *Bundle) Close() error {
	return b.Engine.Close()
}

// Load reads every artifact in dir. Any failure is an *model.ArtifactLoadError
// and nothing is left open.
func Load(dir string, opts Options) (*Bundle, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, &model.ArtifactLoadError{Artifact: "directory", Path: dir, Err: err}
	}

	m, err := ReadManifest(dir)
	if err != nil {
		return nil, &model.ArtifactLoadError{Artifact: "manifest", Path: filepath.Join(dir, ManifestName), Err: err}
	}
	paths := []string{filepath.Join(dir, ManifestName)}

	encs, encPaths, err := loadEncoders(dir, m.Encoders)
	if err != nil {
		return nil, err
	}
	paths = append(paths, encPaths...)

	// Inline feature lists are reported against the manifest.
	featuresPath := filepath.Join(dir, ManifestName)
	columns := m.Features.Columns
	if len(columns) == 0 {
		featuresPath = resolve(dir, m.Features.Path)
		columns, err = features.LoadColumns(featuresPath)
		if err != nil {
			return nil, &model.ArtifactLoadError{Artifact: "features", Path: featuresPath, Err: err}
		}
		paths = append(paths, featuresPath)
	}
	layout, err := features.NewLayout(columns, m.Bindings)
	if err != nil {
		return nil, &model.ArtifactLoadError{Artifact: "features", Path: featuresPath, Err: err}
	}

	modelPath := resolve(dir, m.Model.Path)
	opts.RuntimeLib = runtimeLib(dir, m, opts)
	pred, err := loadModel(m.modelFormat(), modelPath, layout, opts)
	if err != nil {
		return nil, &model.ArtifactLoadError{Artifact: "model", Path: modelPath, Err: err}
	}
	paths = append(paths, modelPath)

	eng, err := engine.New(encs, layout, pred,
		engine.WithChunkSize(opts.ChunkSize),
		engine.WithPredictionColumn(m.OutputColumn),
	)
	if err != nil {
		pred.Close()
		return nil, &model.ArtifactLoadError{Artifact: "model", Path: modelPath, Err: err}
	}

	return &Bundle{
		Engine:   eng,
		Dir:      dir,
		Manifest: m,
		LoadedAt: time.Now(),
		paths:    paths,
	}, nil
}

func loadEncoders(dir string, files map[string]string) ([]*encoder.Encoder, []string, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		encs  []*encoder.Encoder
		paths []string
		seen  = make(map[model.Field]bool)
	)
	for _, name := range names {
		field, err := model.ParseField(name)
		if err != nil {
			return nil, nil, &model.ArtifactLoadError{Artifact: "manifest", Err: err}
		}
		p := resolve(dir, files[name])
		enc, err := encoder.Load(field, p)
		if err != nil {
			return nil, nil, &model.ArtifactLoadError{Artifact: "encoder " + field.String(), Path: p, Err: err}
		}
		encs = append(encs, enc)
		paths = append(paths, p)
		seen[field] = true
	}
	for _, f := range model.Fields {
		if !seen[f] {
			return nil, nil, &model.ArtifactLoadError{
				Artifact: "encoder " + f.String(),
				Err:      errors.New("not listed in manifest"),
			}
		}
	}
	return encs, paths, nil
}

// runtimeLib picks the ONNX Runtime library: an explicit option first, then
// the manifest's model.runtime, else empty (next to the model).
func runtimeLib(dir string, m Manifest, opts Options) string {
	if opts.RuntimeLib != "" {
		return opts.RuntimeLib
	}
	if m.Model.Runtime != "" {
		return resolve(dir, m.Model.Runtime)
	}
	return ""
}

func loadModel(format, path string, layout *features.Layout, opts Options) (predictor.Predictor, error) {
	switch format {
	case "onnx":
		return predictor.NewONNX(path, layout.Width(), predictor.ONNXOptions{
			LibPath:        opts.RuntimeLib,
			IntraOpThreads: opts.IntraOpThreads,
		})
	case "linear":
		return predictor.LoadLinear(path, layout.Columns())
	default:
		return nil, fmt.Errorf("unsupported model format %q", format)
	}
}
