package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/testloom/testloom/internal/analyzer"
	"github.com/testloom/testloom/internal/config"
	"github.com/testloom/testloom/internal/generator"
	"github.com/testloom/testloom/internal/llm"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "testloom",
	Short: "Testloom - JUnit test generation from Java sources",
	Long: `Testloom analyzes Java source files, prompts a local completion
service, and carves compilable JUnit 5 test classes out of the answers.

Run it as an HTTP service ("testloom serve") or batch-generate tests for a
whole source tree ("testloom generate").`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .testloom/config.yml from the working directory.
func loadConfig() (*config.Config, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.NewLoader(rootDir).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// buildPipeline wires the generator and its collaborators from the loaded
// configuration.
func buildPipeline(cfg *config.Config) (generator.Generator, llm.Gateway, *generator.Cache, error) {
	var extractor analyzer.Extractor
	switch cfg.Analysis.Engine {
	case "treesitter":
		extractor = analyzer.NewTreeSitterExtractor()
	default:
		extractor = analyzer.NewRegexExtractor()
	}

	gateway := llm.NewOllamaGateway(cfg.Completion.BaseURL, cfg.Completion.Model, cfg.Completion.Timeout())

	var cache *generator.Cache
	if cfg.Cache.Enabled {
		var err error
		cache, err = generator.NewCache(cfg.Cache.Capacity)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create result cache: %w", err)
		}
	}

	gen := generator.New(cfg.GeneratorConfig(), extractor, gateway, cache)
	return gen, gateway, cache, nil
}
