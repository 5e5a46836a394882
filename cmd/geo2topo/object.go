package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newObjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "object [FILE|-]",
		Short: "Convert a GeoJSON document in memory and print TopoJSON",
		Long: `Read a GeoJSON FeatureCollection, Feature or Geometry from FILE or stdin
and print the TopoJSON topology (layer "geo") to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			converter, log := newConverter(cmd)
			defer log.Sync()

			var input io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				input = f
			}

			topo, err := converter.ConvertObject(cmd.Context(), input)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if indent, _ := cmd.Flags().GetBool("indent"); indent {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(topo)
		},
	}

	cmd.Flags().Bool("indent", false, "Indent the JSON output")
	return cmd
}
