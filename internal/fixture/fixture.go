// Package fixture ships a small, self-consistent artifact set used by tests
// across packages.
package fixture

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed artifacts
var artifacts embed.FS

// Scenario values for the fixture's linear model.
const (
	KeralaCode  = 5
	WayanadCode = 12
	RiceCode    = 0
	KharifCode  = 1
	// ScenarioPrediction is the model output for
	// {2022, 150.5, Rice, Kharif, Kerala, Wayanad}: 5 + 2*150.5 + 0.5 + 0.25*5 + 0.1*12.
	ScenarioPrediction = "308.95"
)

// Files returns the embedded artifact files, rooted at the artifact directory.
func Files() fs.FS {
	sub, err := fs.Sub(artifacts, "artifacts")
	if err != nil {
		panic(err)
	}
	return sub
}

// WriteArtifacts copies the fixture into dir and returns dir.
func WriteArtifacts(dir string) (string, error) {
	err := fs.WalkDir(Files(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(Files(), path)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, path), data, 0o644)
	})
	return dir, err
}

// SampleCSV is a valid three-row batch upload.
const SampleCSV = `State,District,Crop_Year,Season,Crop,Area
Kerala,Wayanad,2022,Kharif,Rice,150.5
Kerala,Idukki,2021,Rabi,Wheat,10
Assam,Kollam,2019,Autumn,Rice,0
`
