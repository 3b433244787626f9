package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/cropcast/internal/engine"
	"github.com/crimson-sun/cropcast/internal/output"
	"github.com/crimson-sun/cropcast/internal/output/csvout"
	"github.com/crimson-sun/cropcast/internal/output/file"
	"github.com/crimson-sun/cropcast/internal/output/multi"
	"github.com/crimson-sun/cropcast/internal/output/term"
	"github.com/crimson-sun/cropcast/internal/output/xlsx"
	"github.com/crimson-sun/cropcast/internal/pipeline"
)

func newPredictCmd(a *app) *cobra.Command {
	var (
		input  string
		out    string
		policy string
		format string
		show   bool
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict production for every row of a CSV file",
		Long: `Reads a CSV with State, District, Crop, Season, year, and Area columns and
appends a prediction column. Without --output the table is printed to stdout.
An --output ending in .xlsx is written as a workbook, anything else as CSV;
--format overrides the extension. With --format and no --output the encoded
table goes to stdout instead of the terminal view.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pol, err := engine.ParsePolicy(policy)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			dest, err := predictOutput(cmd.OutOrStdout(), out, format, show, store.Current().Engine.PredictionColumn())
			if err != nil {
				return err
			}
			defer dest.Close()

			pl := pipeline.New(store,
				pipeline.WithPolicy(pol),
				pipeline.WithMaxRows(a.cfg.Batch.MaxRows),
				pipeline.WithTimeout(a.cfg.Batch.Timeout),
			)
			res, err := pl.Run(cmd.Context(), in, dest)
			if err != nil {
				return err
			}
			for _, re := range res.Rejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped row %d: %v\n", re.Row, re.Err)
			}
			slog.Info("predictions written", "rows", res.Table.Len(), "rejected", len(res.Rejected), "output", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "input CSV file, - for stdin")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (.csv or .xlsx); empty prints a table")
	cmd.Flags().StringVar(&policy, "policy", a.cfg.Batch.Policy, "batch policy: strict or lenient")
	cmd.Flags().StringVar(&format, "format", "", "output encoding: csv or xlsx; empty follows the --output extension")
	cmd.Flags().BoolVar(&show, "show", false, "also print the table when writing --output")
	return cmd
}

// predictOutput picks the destination: a file, an encoded stream on stdout,
// the terminal, or a file plus the terminal.
func predictOutput(stdout io.Writer, path, format string, show bool, column string) (output.Output, error) {
	screen := term.New(stdout, column, 2)
	var opts []file.Option
	if format != "" {
		f, err := file.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		if path == "" {
			if f == file.FormatXLSX {
				return xlsx.New(stdout), nil
			}
			return csvout.New(stdout), nil
		}
		opts = append(opts, file.WithFormat(f))
	}
	if path == "" {
		return screen, nil
	}
	f, err := file.New(path, opts...)
	if err != nil {
		return nil, err
	}
	if show {
		return multi.New(
			multi.Target{Name: path, Out: f},
			multi.Target{Name: "terminal", Out: screen},
		), nil
	}
	return f, nil
}
