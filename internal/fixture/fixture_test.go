package fixture

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteArtifacts(t *testing.T) {
	dir, err := WriteArtifacts(t.TempDir())
	if err != nil {
		t.Fatalf("WriteArtifacts() error: %v", err)
	}
	for _, name := range []string{
		"manifest.yaml", "state_classes.txt", "district_classes.txt",
		"crop_classes.txt", "season_classes.txt", "model_features.txt",
		"crop_production_model.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestFilesNotEmpty(t *testing.T) {
	err := fs.WalkDir(Files(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
