package main

import (
	"fmt"
	"os"

	"github.com/plastinin/geo2topo/pkg/geo2topo"
	"github.com/plastinin/geo2topo/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geo2topo",
		Short: "Convert geographic files to TopoJSON",
		Long: `Converts TopoJSON, GeoJSON, KML and Shapefile inputs into TopoJSON.
The format is detected from the file name unless --format is given.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug logs to stderr")
	cmd.PersistentFlags().String("work-dir", "", "Directory for intermediate GeoJSON files (default: system temp)")

	cmd.AddCommand(
		newConvertCommand(),
		newDetectCommand(),
		newBatchCommand(),
		newObjectCommand(),
	)
	return cmd
}

// newConverter собирает конвертер из общих флагов
func newConverter(cmd *cobra.Command) (*geo2topo.Converter, *zap.Logger) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	workDir, _ := cmd.Flags().GetString("work-dir")

	log := logger.NewCLI(verbose)
	return geo2topo.New(geo2topo.WithWorkDir(workDir), geo2topo.WithLogger(log)), log
}

func main() {
	if err := newMainCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
