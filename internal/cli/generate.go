package cli

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gobwas/glob"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/testloom/testloom/internal/generator"
)

var (
	quietFlag   bool
	watchFlag   bool
	forceFlag   bool
	patternFlag string
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate [dir]",
	Short: "Generate JUnit tests for a Java source tree",
	Long: `Generate walks a Maven-style source tree, runs the pipeline for every
matching Java file, and writes the result next to the source under
src/test/java.

Existing test files are kept unless --force is given. Files whose generation
degraded to a placeholder are still written, marked by a header comment.

Examples:
  # Generate tests for the current project
  testloom generate

  # Regenerate everything, overwriting existing tests
  testloom generate --force

  # Keep running and regenerate on source changes
  testloom generate --watch
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	generateCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for source changes and regenerate")
	generateCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Overwrite existing test files")
	generateCmd.Flags().StringVar(&patternFlag, "pattern", "**/src/main/java/**/*.java", "Glob for source files to cover")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling generation...")
		cancel()
	}()

	rootDir := "."
	if len(args) == 1 {
		rootDir = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gen, _, cache, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	matcher, err := glob.Compile(patternFlag, '/')
	if err != nil {
		return fmt.Errorf("invalid --pattern: %w", err)
	}

	runner := &batchRunner{gen: gen, matcher: matcher, quiet: quietFlag, force: forceFlag}

	if err := runner.run(ctx, rootDir); err != nil {
		return err
	}
	if !watchFlag {
		return nil
	}
	return watchSources(ctx, rootDir, runner)
}

// batchRunner generates tests for every matching file under a root.
type batchRunner struct {
	gen     generator.Generator
	matcher glob.Glob
	quiet   bool
	force   bool
}

func (b *batchRunner) run(ctx context.Context, rootDir string) error {
	files, err := b.discover(rootDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		if !b.quiet {
			log.Println("No matching source files found")
		}
		return nil
	}

	var bar *progressbar.ProgressBar
	if !b.quiet {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Generating tests"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)
	}

	generated, fallbacks, skipped := 0, 0, 0
	for _, path := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		outcome, err := b.generateOne(ctx, path)
		if err != nil {
			log.Printf("%s: %v", path, err)
		} else {
			switch outcome {
			case outcomeSkipped:
				skipped++
			case outcomeFallback:
				fallbacks++
			default:
				generated++
			}
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	if !b.quiet {
		log.Printf("Done: %d generated, %d placeholders, %d skipped", generated, fallbacks, skipped)
	}
	return nil
}

func (b *batchRunner) discover(rootDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name == ".git" || name == "target" || name == "build" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		// anchor the pattern's leading ** for files at the tree root too
		if b.matcher.Match(rel) || b.matcher.Match("./"+rel) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

type generateOutcome int

const (
	outcomeGenerated generateOutcome = iota
	outcomeFallback
	outcomeSkipped
)

func (b *batchRunner) generateOne(ctx context.Context, path string) (generateOutcome, error) {
	outPath := testPath(path)
	if !b.force {
		if _, err := os.Stat(outPath); err == nil {
			return outcomeSkipped, nil
		}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	resp, err := b.gen.Generate(ctx, generator.Request{SourceText: string(source)})
	if err != nil {
		return 0, err
	}

	text := resp.Text
	if resp.IsFallback {
		text = "// PLACEHOLDER: automatic generation failed, review before use\n" + text
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(outPath, []byte(text), 0644); err != nil {
		return 0, err
	}

	if resp.IsFallback {
		return outcomeFallback, nil
	}
	return outcomeGenerated, nil
}

// testPath maps src/main/java/.../Foo.java to src/test/java/.../FooTest.java.
// Sources outside a Maven layout get a sibling FooTest.java.
func testPath(sourcePath string) string {
	dir, file := filepath.Split(sourcePath)
	base := strings.TrimSuffix(file, ".java")

	mainSeg := filepath.Join("src", "main", "java")
	testSeg := filepath.Join("src", "test", "java")
	if idx := strings.LastIndex(dir, mainSeg); idx >= 0 {
		dir = dir[:idx] + testSeg + dir[idx+len(mainSeg):]
	}
	return filepath.Join(dir, base+"Test.java")
}
