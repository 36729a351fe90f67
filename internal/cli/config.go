package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sensefold/sensefold/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sensefold configuration",
	Long: `Manage sensefold configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (SENSEFOLD_*)
3. Config file (~/.sensefold/config.yaml)
4. Defaults

Clustering and similarity constants are not configurable: they are fixed
in code so identical inputs always reduce identically.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		data, err := yaml.Marshal(mergedConfig())
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

// mergedConfig overlays the viper state (config file and SENSEFOLD_*
// environment) onto the built-in defaults. Flag overrides are applied
// afterwards by buildConfig, which keeps the documented hierarchy.
func mergedConfig() *model.Config {
	cfg := model.DefaultConfig()

	if viper.IsSet("registry.backend") {
		cfg.Registry.Backend = viper.GetString("registry.backend")
	}
	if viper.IsSet("registry.path") {
		cfg.Registry.Path = viper.GetString("registry.path")
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.dir") {
		cfg.Cache.Dir = viper.GetString("cache.dir")
	}
	if viper.IsSet("cache.memory_ttl") {
		cfg.Cache.MemoryTTL = viper.GetDuration("cache.memory_ttl")
	}
	if viper.IsSet("cache.disk_ttl") {
		cfg.Cache.DiskTTL = viper.GetDuration("cache.disk_ttl")
	}
	if viper.IsSet("embedding.provider") {
		cfg.Embedding.Provider = viper.GetString("embedding.provider")
	}
	if viper.IsSet("embedding.model") {
		cfg.Embedding.Model = viper.GetString("embedding.model")
	}
	if viper.IsSet("embedding.api_key") {
		cfg.Embedding.APIKey = viper.GetString("embedding.api_key")
	}
	if viper.IsSet("embedding.base_url") {
		cfg.Embedding.BaseURL = viper.GetString("embedding.base_url")
	}
	if viper.IsSet("embedding.requests_per_second") {
		cfg.Embedding.RequestsPerSecond = viper.GetFloat64("embedding.requests_per_second")
	}
	if viper.IsSet("embedding.burst") {
		cfg.Embedding.Burst = viper.GetInt("embedding.burst")
	}
	if viper.IsSet("embedding.timeout_seconds") {
		cfg.Embedding.TimeoutSeconds = viper.GetInt("embedding.timeout_seconds")
	}
	if viper.IsSet("batch.workers") {
		cfg.Batch.Workers = viper.GetInt("batch.workers")
	}
	if viper.IsSet("log.level") {
		cfg.Log.Level = viper.GetString("log.level")
	}
	if viper.IsSet("log.format") {
		cfg.Log.Format = viper.GetString("log.format")
	}
	if viper.IsSet("output.include_collapsed") {
		cfg.Output.IncludeCollapsed = viper.GetBool("output.include_collapsed")
	}
	return cfg
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir := homeDir()
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'sensefold config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		data, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		header := "# Sensefold configuration file\n" +
			"#\n" +
			"# Hierarchy (highest to lowest priority):\n" +
			"#   1. CLI flags\n" +
			"#   2. Environment variables (SENSEFOLD_*, OPENAI_API_KEY)\n" +
			"#   3. This config file\n" +
			"#   4. Built-in defaults\n\n"

		if err := os.WriteFile(configPath, append([]byte(header), data...), 0644); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
