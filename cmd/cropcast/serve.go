package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/cropcast/internal/artifacts"
	"github.com/crimson-sun/cropcast/internal/engine"
	"github.com/crimson-sun/cropcast/internal/export"
	"github.com/crimson-sun/cropcast/internal/pipeline"
	"github.com/crimson-sun/cropcast/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr   string
		watch  bool
		policy string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction form, batch upload, and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pol, err := engine.ParsePolicy(policy)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			pl := pipeline.New(store,
				pipeline.WithPolicy(pol),
				pipeline.WithMaxRows(a.cfg.Batch.MaxRows),
				pipeline.WithTimeout(a.cfg.Batch.Timeout),
			)
			exports := export.NewStore(a.cfg.Server.ExportTTL, a.cfg.Server.ExportMax)
			srv, err := web.New(store, pl, exports, web.WithMaxUploadBytes(a.cfg.Batch.MaxBytes))
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.ListenAndServe(gctx, web.Settings{
					Addr:            addr,
					ReadTimeout:     a.cfg.Server.ReadTimeout,
					WriteTimeout:    a.cfg.Server.WriteTimeout,
					ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
				})
			})
			if watch {
				w, err := artifacts.NewWatcher(store, a.cfg.Artifacts.Debounce)
				if err != nil {
					stop()
					g.Wait()
					return fmt.Errorf("watch artifacts: %w", err)
				}
				slog.Info("watching artifacts for changes", "dir", store.Current().Dir)
				g.Go(func() error { return w.Run(gctx) })
			}

			slog.Info("cropcast serving", "addr", addr, "policy", pl.Policy().String(), "artifacts", store.Current().Dir)
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", a.cfg.Server.Addr, "listen address")
	cmd.Flags().BoolVar(&watch, "watch", a.cfg.Artifacts.Watch, "reload artifacts when their files change")
	cmd.Flags().StringVar(&policy, "policy", a.cfg.Batch.Policy, "batch policy: strict or lenient")
	return cmd
}
