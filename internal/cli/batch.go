package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/clauseguard/clauseguard/internal/pipeline"
	"github.com/clauseguard/clauseguard/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Scan multiple pages from a file in parallel",
	Long: `Batch processes multiple pages concurrently:
- Read target URLs from an input file (one per line, # for comments)
- Scan targets in parallel with a configurable worker count
- Generate individual JSON and Markdown reports for each page

Example:
  clauseguard batch targets.txt
  clauseguard batch targets.txt --concurrency 10 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./clauseguard-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	// Shared scan flags
	batchCmd.Flags().StringVar(&userAgent, "ua", "ClauseGuard/0.1 (+https://github.com/clauseguard/clauseguard)", "HTTP User-Agent")
	batchCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the analysis result cache")
	batchCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist cached results under this directory")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored terminal output")
	batchCmd.Flags().StringVar(&engineKind, "engine", "rules", "classifier engine (rules, remote, llm)")
	batchCmd.Flags().StringVar(&remoteURL, "remote-url", "", "remote classifier base URL (engine=remote)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name (engine=llm)")
	batchCmd.Flags().IntVar(&workers, "workers", 4, "concurrent classifications per scan")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	processor := worker.NewBatchProcessor(p, concurrency)

	fmt.Fprintf(os.Stderr, "Reading targets from %s...\n", file)
	outcomes, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Processed %d targets with %d workers\n\n", len(outcomes), concurrency)

	successCount := 0
	failureCount := 0

	for _, outcome := range outcomes {
		if outcome.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", outcome.Target, outcome.Error)
			continue
		}

		successCount++

		slug := sanitizeFilename(outcome.Target)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter, cfg.Output.NoColor)
		if err := renderer.RenderJSON(outcome.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", outcome.Target, err)
			continue
		}
		if err := renderer.RenderMarkdown(outcome.Report, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", outcome.Target, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s (%d fragments, highest risk: %s)\n",
			outcome.Target, len(outcome.Report.Results), outcome.Report.HighestRisk())
	}

	fmt.Fprintf(os.Stderr, "\nBatch complete: %d targets, %d succeeded, %d failed\n",
		len(outcomes), successCount, failureCount)
	fmt.Fprintf(os.Stderr, "Reports written to %s\n", outputDir)

	return nil
}

// sanitizeFilename derives a safe report filename from a scan target
func sanitizeFilename(target string) string {
	s := target
	if parsed, err := url.Parse(target); err == nil && parsed.Host != "" {
		s = parsed.Host + strings.ReplaceAll(parsed.Path, "/", "-")
	}

	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
	)
	s = replacer.Replace(s)
	s = strings.Trim(s, "-_.")

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "report"
	}

	return s
}
