package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/clauseguard/clauseguard/internal/model"
	"github.com/clauseguard/clauseguard/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON     string
	outMD       string
	scanTimeout time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	cacheDir    string
	noFooter    bool
	noColor     bool
	insecureTLS bool
	noResolve   bool
	engineKind  string
	remoteURL   string
	llmModel    string
	workers     int
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url|file>",
	Short: "Scan a page for legal text and analyze its risk",
	Long: `Scan fetches a web page (or reads a local HTML file), detects legal
text fragments (embedded terms, modals, consent checkboxes, legal links),
and classifies each fragment across seven risk dimensions.

Example:
  clauseguard scan https://example.com/terms
  clauseguard scan https://example.com --json report.json --md report.md
  clauseguard scan page.html --engine llm --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Output flags
	scanCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	scanCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	scanCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	scanCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored terminal output")

	// HTTP flags
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 2*time.Minute, "overall scan timeout")
	scanCmd.Flags().StringVar(&userAgent, "ua", "ClauseGuard/0.1 (+https://github.com/clauseguard/clauseguard)", "HTTP User-Agent")
	scanCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read")
	scanCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	scanCmd.Flags().BoolVar(&noResolve, "no-resolve", false, "do not fetch same-origin legal link targets")

	// Cache flags
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the analysis result cache")
	scanCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist cached results under this directory")

	// Engine flags
	scanCmd.Flags().StringVar(&engineKind, "engine", "rules", "classifier engine (rules, remote, llm)")
	scanCmd.Flags().StringVar(&remoteURL, "remote-url", "", "remote classifier base URL (engine=remote)")
	scanCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name (engine=llm)")
	scanCmd.Flags().IntVar(&workers, "workers", 4, "concurrent classifications per scan")
}

// buildConfig assembles runtime configuration from defaults and flags
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.InsecureTLS = insecureTLS
	cfg.Detect.ResolveLinks = !noResolve
	cfg.Analysis.Workers = workers
	cfg.Cache.Enabled = !noCache
	cfg.Cache.Dir = cacheDir
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	cfg.Output.NoColor = noColor

	cfg.Engine.Kind = engineKind
	switch engineKind {
	case "remote":
		cfg.Engine.RemoteURL = remoteURL
	case "llm":
		cfg.Engine.Model = llmModel
		cfg.Engine.APIKey = os.Getenv("OPENAI_API_KEY")
		if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
			cfg.Engine.BaseURL = baseURL
		}
		if cfg.Engine.APIKey == "" && cfg.Engine.BaseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}

	return cfg, nil
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", target)
		fmt.Fprintf(os.Stderr, "Engine: %s\n", engineKind)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", !noCache)
		fmt.Fprintln(os.Stderr)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	var report *model.Report
	if isURL(target) {
		report, err = p.ScanURL(ctx, target)
	} else {
		report, err = p.ScanFile(ctx, target)
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Detected %d fragments\n", report.FragmentsDetected)
		fmt.Fprintf(os.Stderr, "✓ Analyzed %d fragments (%d skipped)\n", len(report.Results), report.FragmentsSkipped)
		fmt.Fprintln(os.Stderr)
	}

	if evicted := p.EvictIfOverCapacity(); evicted > 0 && verbose {
		fmt.Fprintf(os.Stderr, "cache: evicted %d entries over capacity\n", evicted)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
