package main

import (
	"fmt"

	"github.com/plastinin/geo2topo/pkg/geo2topo"
	"github.com/spf13/cobra"
)

func newConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert SOURCE DEST",
		Short: "Convert one file to TopoJSON",
		Long: `Convert SOURCE to a TopoJSON file at DEST.
A shapefile may be given with or without the .shp extension; its .dbf must sit next to it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			converter, log := newConverter(cmd)
			defer log.Sync()

			format, _ := cmd.Flags().GetString("format")
			quiet, _ := cmd.Flags().GetBool("quiet")

			var opts []geo2topo.ConvertOption
			if !quiet {
				opts = append(opts, geo2topo.WithProgress(func(message string) {
					fmt.Fprintln(cmd.ErrOrStderr(), message)
				}))
			}

			source, dest := args[0], args[1]
			if format != "" {
				return converter.ConvertFileWithFormat(cmd.Context(), source, format, dest, opts...)
			}
			return converter.ConvertFile(cmd.Context(), source, dest, opts...)
		},
	}

	cmd.Flags().StringP("format", "f", "", "Input format: topojson, geojson, kml, shp (default: detect from file name)")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print conversion stages")
	return cmd
}
