package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/cropcast/internal/artifacts"
	"github.com/crimson-sun/cropcast/internal/model"
)

func newClassesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classes [State|District|Crop|Season]",
		Short: "List the labels each categorical field accepts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := model.Fields
			if len(args) == 1 {
				f, err := model.ParseField(args[0])
				if err != nil {
					return err
				}
				fields = []model.Field{f}
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			return store.Use(func(b *artifacts.Bundle) error {
				for _, f := range fields {
					classes := b.Engine.Classes(f)
					if len(fields) > 1 {
						fmt.Fprintf(w, "%s (%d):\n", f, len(classes))
					}
					for code, label := range classes {
						if len(fields) > 1 {
							fmt.Fprintf(w, "  %d\t%s\n", code, label)
						} else {
							fmt.Fprintf(w, "%d\t%s\n", code, label)
						}
					}
				}
				return nil
			})
		},
	}
}
