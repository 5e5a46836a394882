package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/plastinin/geo2topo/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch --out DIR FILE...",
		Short: "Convert many files concurrently",
		Long: `Convert every FILE into DIR/<name>.topojson.
Files are converted concurrently; a failed file does not stop the others unless --fail-fast is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			converter, log := newConverter(cmd)
			defer log.Sync()

			outDir, _ := cmd.Flags().GetString("out")
			jobs, _ := cmd.Flags().GetInt("jobs")
			failFast, _ := cmd.Flags().GetBool("fail-fast")
			if jobs < 1 {
				jobs = 1
			}

			targets, err := batchTargets(outDir, args)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)

			var (
				mu     sync.Mutex
				failed int
			)
			// Каждая горутина пишет только свой элемент, вывод после g.Wait
			converted := make([]bool, len(args))
			for i, source := range args {
				dest := targets[source]
				g.Go(func() error {
					if err := converter.ConvertFile(ctx, source, dest); err != nil {
						log.Error("Conversion failed", zap.String("source", source), zap.Error(err))
						mu.Lock()
						failed++
						mu.Unlock()
						if failFast {
							return fmt.Errorf("%s: %w", source, err)
						}
						return nil
					}
					converted[i] = true
					return nil
				})
			}

			err = g.Wait()
			for i, source := range args {
				if converted[i] {
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", source, targets[source])
				}
			}
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringP("out", "o", ".", "Output directory")
	cmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Maximum concurrent conversions")
	cmd.Flags().Bool("fail-fast", false, "Stop on the first failed file")
	return cmd
}

// batchTargets сопоставляет каждому файлу путь результата.
// Два файла с одинаковым именем результата считаются ошибкой.
func batchTargets(outDir string, sources []string) (map[string]string, error) {
	targets := make(map[string]string, len(sources))
	owners := make(map[string]string, len(sources))

	for _, source := range sources {
		dest := filepath.Join(outDir, domain.ResultFileName(source))
		if other, ok := owners[dest]; ok && other != source {
			return nil, fmt.Errorf("%s and %s both convert to %s", other, source, dest)
		}
		owners[dest] = source
		targets[source] = dest
	}
	return targets, nil
}
