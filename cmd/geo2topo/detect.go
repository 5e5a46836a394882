package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/plastinin/geo2topo/pkg/geo2topo"
	"github.com/spf13/cobra"
)

func newDetectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE...",
		Short: "Print the detected input format of each file name",
		Long:  "Detects the format from the file name only; files are not opened.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			var errs []error
			for _, name := range args {
				format, err := geo2topo.DetectFormat(name)
				if err != nil {
					fmt.Fprintf(w, "%s\t-\t%s\n", name, err)
					errs = append(errs, fmt.Errorf("%s: %w", name, err))
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, format, format.Name())
			}

			if err := w.Flush(); err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}
}
