package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/cropcast/internal/artifacts"
	"github.com/crimson-sun/cropcast/internal/config"
	"github.com/crimson-sun/cropcast/internal/logging"
)

// app carries configuration shared by every subcommand.
type app struct {
	cfg         config.Config
	artifactDir string
	logLevel    string
	logFormat   string
}

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	a := &app{cfg: cfg}
	root := &cobra.Command{
		Use:          "cropcast",
		Short:        "Predict crop production from region, crop, season, year, and area",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(a.logFormat, logging.ParseLevel(a.logLevel))
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.artifactDir, "artifacts", cfg.Artifacts.Dir, "artifact directory (manifest.yaml, model, encoders, feature order)")
	flags.StringVar(&a.logLevel, "log-level", cfg.Log.Level, "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", cfg.Log.Format, "log format: text or json")

	root.AddCommand(newServeCmd(a), newPredictCmd(a), newClassesCmd(a))
	return root
}

func (a *app) loadOptions() artifacts.Options {
	return artifacts.Options{
		RuntimeLib:     a.cfg.Artifacts.RuntimeLib,
		IntraOpThreads: a.cfg.Artifacts.IntraOpThreads,
		ChunkSize:      a.cfg.Engine.ChunkSize,
	}
}

// openStore loads the artifact bundle. A failure here is fatal for every
// subcommand.
func (a *app) openStore() (*artifacts.Store, error) {
	dir, opts := a.artifactDir, a.loadOptions()
	store, err := artifacts.NewStore(func() (*artifacts.Bundle, error) {
		return artifacts.Load(dir, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("load artifacts: %w", err)
	}
	return store, nil
}
