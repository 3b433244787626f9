package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file Load looks for in an artifact directory.
const ManifestName = "manifest.yaml"

// Manifest describes where each artifact lives and how to interpret it.
type Manifest struct {
	Model        ModelSpec         `yaml:"model"`
	Encoders     map[string]string `yaml:"encoders"` // field name -> classes file
	Features     FeatureList       `yaml:"features"`
	Bindings     map[string]string `yaml:"bindings,omitempty"` // column -> slot
	OutputColumn string            `yaml:"output_column,omitempty"`
}

// ModelSpec locates the regression model.
type ModelSpec struct {
	Path    string `yaml:"path"`
	Format  string `yaml:"format,omitempty"`  // "onnx" or "linear"; inferred from extension when empty
	Runtime string `yaml:"runtime,omitempty"` // ONNX Runtime shared library, relative to the manifest
}

// FeatureList is either a path to a feature-order file or an inline list.
type FeatureList struct {
	Path    string
	Columns []string
}

// UnmarshalYAML accepts a scalar (file path) or a sequence (inline columns).
func (f *FeatureList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&f.Path)
	case yaml.SequenceNode:
		return node.Decode(&f.Columns)
	default:
		return fmt.Errorf("line %d: features must be a file path or a list of column names", node.Line)
	}
}

// MarshalYAML writes the form the list was read in.
func (f FeatureList) MarshalYAML() (any, error) {
	if len(f.Columns) > 0 {
		return f.Columns, nil
	}
	return f.Path, nil
}

// DefaultManifest is used when an artifact directory has no manifest.yaml.
func DefaultManifest() Manifest {
	return Manifest{
		Model: ModelSpec{Path: "crop_production_model.onnx"},
		Encoders: map[string]string{
			"State":    "state_classes.txt",
			"District": "district_classes.txt",
			"Crop":     "crop_classes.txt",
			"Season":   "season_classes.txt",
		},
		Features: FeatureList{Path: "model_features.txt"},
	}
}

// ReadManifest loads dir/manifest.yaml, falling back to DefaultManifest when
// the file does not exist.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if os.IsNotExist(err) {
		return DefaultManifest(), nil
	}
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse %s: %w", ManifestName, err)
	}
	if m.Model.Path == "" {
		return Manifest{}, fmt.Errorf("%s: model.path is required", ManifestName)
	}
	if m.Features.Path == "" && len(m.Features.Columns) == 0 {
		return Manifest{}, fmt.Errorf("%s: features is required", ManifestName)
	}
	return m, nil
}

// modelFormat returns the declared format or infers it from the file extension.
func (m Manifest) modelFormat() string {
	if m.Model.Format != "" {
		return strings.ToLower(m.Model.Format)
	}
	if strings.EqualFold(filepath.Ext(m.Model.Path), ".json") {
		return "linear"
	}
	return "onnx"
}

// resolve makes p relative to dir unless it is already absolute.
func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
