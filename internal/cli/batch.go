package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sensefold/sensefold/internal/embed"
	"github.com/sensefold/sensefold/internal/model"
	"github.com/sensefold/sensefold/internal/reduce"
	"github.com/sensefold/sensefold/internal/worker"
)

var (
	batchMode    string
	batchWorkers int
	batchOutDir  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir|list-file>",
	Short: "Reduce many term documents concurrently",
	Long: `Batch reduces a directory of *.json term documents (or a list file of
document paths, one per line) through a worker pool. Each document is an
independent reduction; only the constant registry is shared.

Example:
  sensefold batch ./terms --workers 8 --out ./results
  sensefold batch terms.txt --mode skeptic`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchMode, "mode", "open", "reduction mode (open, skeptic)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent reductions (default from config)")
	batchCmd.Flags().StringVar(&batchOutDir, "out", "", "directory for per-term JSON results (optional)")
	batchCmd.Flags().StringVar(&registryPath, "registry", "", "registry path (default: $HOME/.sensefold/registry.<backend>)")
	batchCmd.Flags().StringVar(&registryBackend, "registry-backend", "", "registry backend (file, sqlite; default file)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	mode, err := model.ParseMode(batchMode)
	if err != nil {
		return err
	}

	cfg := buildConfig()
	logger := newLogger(cfg.Log)

	paths, err := worker.CollectPaths(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no documents found in %s", args[0])
	}

	reg, closeReg, err := openRegistry(cfg)
	if err != nil {
		logger.Warn("registry unavailable, senses will carry no constants", "err", err)
		reg = nil
	}
	if closeReg != nil {
		defer closeReg()
	}

	embedder, err := embed.NewProvider(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}

	workers := batchWorkers
	if workers <= 0 {
		workers = cfg.Batch.Workers
	}

	if batchOutDir != "" {
		if err := os.MkdirAll(batchOutDir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Reducing %d document(s) with %d worker(s)\n", len(paths), workers)
	}

	processor := worker.NewBatchProcessor(reduce.New(reg, embedder, logger), workers)
	results := processor.ProcessPaths(context.Background(), paths, reduce.Options{Mode: mode})

	failures := 0
	for _, r := range results {
		if r.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Path, r.Error)
			continue
		}

		fmt.Printf("✓ %-30s %d sense(s)\n", r.Result.Term, len(r.Result.Senses))

		if batchOutDir != "" {
			if err := writeBatchResult(r, batchOutDir); err != nil {
				failures++
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Path, err)
			}
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d document(s) failed", failures, len(results))
	}
	return nil
}

func writeBatchResult(r *worker.ReduceResult, outDir string) error {
	data, err := json.MarshalIndent(r.Result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(r.Path), filepath.Ext(r.Path))
	out := filepath.Join(outDir, base+".result.json")
	if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
