package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clauseguard/clauseguard/internal/analyze"
	"github.com/clauseguard/clauseguard/internal/cache"
	"github.com/clauseguard/clauseguard/internal/detect"
	"github.com/clauseguard/clauseguard/internal/engine"
	"github.com/clauseguard/clauseguard/internal/model"
	"golang.org/x/net/html"
)

// Pipeline orchestrates the complete scan process: fetch a document,
// detect legal-text fragments, classify them, and build a report.
type Pipeline struct {
	fetcher      *Fetcher
	detector     *detect.Detector
	orchestrator *analyze.Orchestrator
	renderer     *Renderer
	config       *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	eng, err := engine.New(cfg.Engine, cfg.Analysis.Timeout)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	var resolver detect.Resolver
	if cfg.Detect.ResolveLinks {
		resolver = detect.NewLinkResolver(detect.ResolverOptions{
			Timeout:       cfg.HTTP.Timeout,
			UserAgent:     cfg.HTTP.UserAgent,
			MaxBodyBytes:  cfg.HTTP.MaxBodyBytes,
			RespectRobots: cfg.Detect.RespectRobots,
			RatePerSecond: cfg.Detect.ResolveRatePerS,
			Burst:         cfg.Detect.ResolveBurst,
		})
	}

	// The result cache is always in memory; the persistent store behind
	// it is optional and only used when caching is enabled.
	var store cache.Store
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			store = cache.NewLayeredStore(24*time.Hour, cfg.Cache.Dir, 7*24*time.Hour)
		} else {
			store = cache.NewMemoryStore(24*time.Hour, time.Hour)
		}
	}
	results := cache.NewResultCache(
		cfg.Cache.Capacity,
		cfg.Cache.ReducedCapacity,
		cfg.Cache.PressureThreshold,
		nil,
		store,
	)

	return &Pipeline{
		fetcher:  NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, cfg.HTTP.InsecureTLS),
		detector: detect.NewDetector(resolver, cfg.Output.Verbose),
		orchestrator: analyze.NewOrchestrator(eng, results, analyze.Options{
			Timeout: cfg.Analysis.Timeout,
			Workers: cfg.Analysis.Workers,
			Verbose: cfg.Output.Verbose,
		}),
		renderer: NewRenderer(cfg.Output.IncludeFooter, cfg.Output.NoColor),
		config:   cfg,
	}, nil
}

// ScanURL scans a single document URL and generates a complete report
func (p *Pipeline) ScanURL(ctx context.Context, url string) (*model.Report, error) {
	fetchResult, err := p.fetcher.FetchWithRetry(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(fetchResult.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return p.scan(ctx, doc, fetchResult.FinalURL, fetchResult.Meta), nil
}

// ScanFile scans a local HTML file and generates a complete report
func (p *Pipeline) ScanFile(ctx context.Context, path string) (*model.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	origin := path
	if abs, err := filepath.Abs(path); err == nil {
		origin = "file://" + abs
	}

	return p.scan(ctx, doc, origin, model.FetchMeta{}), nil
}

func (p *Pipeline) scan(ctx context.Context, doc *html.Node, origin string, meta model.FetchMeta) *model.Report {
	fragments := p.detector.Detect(ctx, doc, origin)
	results := p.orchestrator.AnalyzeIfNew(ctx, fragments)

	return &model.Report{
		Origin:            origin,
		FetchedAt:         time.Now().UTC(),
		FetchMeta:         meta,
		FragmentsDetected: len(fragments),
		FragmentsSkipped:  len(fragments) - len(results),
		Results:           results,
	}
}

// EvictIfOverCapacity runs a cache capacity check after a scan
func (p *Pipeline) EvictIfOverCapacity() int {
	return p.orchestrator.EvictIfOverCapacity()
}

// ClearCache empties the analysis result cache
func (p *Pipeline) ClearCache() {
	p.orchestrator.ClearAll()
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(report)

	return nil
}
