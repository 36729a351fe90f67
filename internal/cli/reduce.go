package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sensefold/sensefold/internal/cache"
	"github.com/sensefold/sensefold/internal/embed"
	"github.com/sensefold/sensefold/internal/extract"
	"github.com/sensefold/sensefold/internal/model"
	"github.com/sensefold/sensefold/internal/normalize"
	"github.com/sensefold/sensefold/internal/reduce"
	"github.com/sensefold/sensefold/internal/registry"
	"github.com/sensefold/sensefold/internal/similarity"
)

var (
	modeFlag        string
	outJSON         string
	withEvidence    bool
	noCache         bool
	showAll         bool
	registryPath    string
	registryBackend string
	embedProvider   string
	embedModel      string
)

// reduceCmd represents the reduce command
var reduceCmd = &cobra.Command{
	Use:   "reduce <entries.json>",
	Short: "Reduce one term's parsed dictionary entries into ranked senses",
	Long: `Reduce consumes a JSON document of parsed dictionary entries for one
lookup term and produces ranked sense clusters:

- one witness per discrete source sense, nothing merged or dropped
- deterministic clustering: identical input always yields identical buckets
- durable semantic constants matched or introduced from the registry
- recovered conditions (gaps, malformed witnesses, registry outages)
  reported as diagnostics, never as failures

Example:
  sensefold reduce laksa.json
  sensefold reduce laksa.json --mode skeptic --json out.json
  sensefold reduce laksa.json --evidence --all
  cat laksa.json | sensefold reduce -`,
	Args: cobra.ExactArgs(1),
	RunE: runReduce,
}

func init() {
	rootCmd.AddCommand(reduceCmd)

	reduceCmd.Flags().StringVar(&modeFlag, "mode", "open", "reduction mode (open, skeptic)")
	reduceCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	reduceCmd.Flags().BoolVar(&withEvidence, "evidence", false, "include the bucket/registry decision trail")
	reduceCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	reduceCmd.Flags().BoolVar(&showAll, "all", false, "show collapsed senses in the summary")
	reduceCmd.Flags().StringVar(&registryPath, "registry", "", "registry path (default: $HOME/.sensefold/registry.<backend>)")
	reduceCmd.Flags().StringVar(&registryBackend, "registry-backend", "", "registry backend (file, sqlite; default file)")
	reduceCmd.Flags().StringVar(&embedProvider, "embed", "", "embedding provider (openai); empty disables embeddings")
	reduceCmd.Flags().StringVar(&embedModel, "embed-model", "", "embedding model name")
}

func runReduce(cmd *cobra.Command, args []string) error {
	mode, err := model.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	cfg := buildConfig()
	logger := newLogger(cfg.Log)

	raw, err := readDocument(args[0])
	if err != nil {
		return err
	}

	var resultCache cache.Cache
	cacheable := cfg.Cache.Enabled && !noCache && !withEvidence
	if cacheable {
		resultCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		if data, found := resultCache.Get(cache.Key(raw, mode)); found {
			var cached model.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				if verbose {
					fmt.Fprintln(os.Stderr, "Result served from cache")
				}
				return renderResult(&cached, outJSON, showAll || cfg.Output.IncludeCollapsed)
			}
			// A corrupt entry is dropped, not fatal.
			_ = resultCache.Delete(cache.Key(raw, mode))
		}
	}

	doc, err := extract.ParseDocument(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	reg, closeReg, err := openRegistry(cfg)
	if err != nil {
		// Registry trouble degrades to null constants inside the
		// reducer; opening trouble degrades the same way here.
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

	reducer := reduce.New(reg, embedder, logger)
	result, err := reducer.Reduce(context.Background(), doc, reduce.Options{
		Mode:         mode,
		WithEvidence: withEvidence,
	})
	if err != nil {
		return fmt.Errorf("reduce failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d witnesses across %d senses (%d diagnostics)\n",
			witnessTotal(result), len(result.Senses), len(result.Diagnostics))
	}

	if cacheable {
		if data, err := json.Marshal(result); err == nil {
			_ = resultCache.Set(cache.Key(raw, mode), data, 0)
		}
	}

	return renderResult(result, outJSON, showAll || cfg.Output.IncludeCollapsed)
}

// buildConfig applies flag overrides on top of the merged viper config
// and resolves default paths under the sensefold home directory.
func buildConfig() *model.Config {
	cfg := mergedConfig()
	cfg.Output.Verbose = verbose

	if registryBackend != "" {
		cfg.Registry.Backend = registryBackend
	}
	if registryPath != "" {
		cfg.Registry.Path = registryPath
	}
	if cfg.Registry.Path == "" {
		name := "registry.json"
		if cfg.Registry.Backend == "sqlite" {
			name = "registry.db"
		}
		cfg.Registry.Path = filepath.Join(homeDir(), name)
	}

	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(homeDir(), "cache")
	}

	if embedProvider != "" {
		cfg.Embedding.Provider = embedProvider
	}
	if embedModel != "" {
		cfg.Embedding.Model = embedModel
	}
	if cfg.Embedding.Provider == "openai" && cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return cfg
}

// openRegistry builds the registry service over the configured store.
func openRegistry(cfg *model.Config) (*registry.Registry, func(), error) {
	scorer := similarity.NewScorer()
	normalizer := normalize.New()

	switch cfg.Registry.Backend {
	case "file":
		store := registry.NewFileStore(cfg.Registry.Path)
		return registry.New(store, scorer, normalizer), nil, nil
	case "sqlite":
		store, err := registry.OpenSQLiteStore(cfg.Registry.Path)
		if err != nil {
			return nil, nil, err
		}
		return registry.New(store, scorer, normalizer), func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown registry backend: %q", cfg.Registry.Backend)
	}
}

func readDocument(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

func witnessTotal(result *model.Result) int {
	total := 0
	for _, s := range result.Senses {
		total += len(s.Witnesses)
	}
	return total
}
