package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/clauseguard/clauseguard/internal/model"
)

// Scanner defines the interface for scanning a single target document
type Scanner interface {
	ScanURL(ctx context.Context, url string) (*model.Report, error)
}

// ScanJob represents one document scan job
type ScanJob struct {
	Target  string
	Scanner Scanner
}

// Execute executes the scan job
func (j *ScanJob) Execute(ctx context.Context) Result {
	report, err := j.Scanner.ScanURL(ctx, j.Target)
	return &ScanOutcome{
		Target: j.Target,
		Report: report,
		Error:  err,
	}
}

// ScanOutcome represents the result of a scan job
type ScanOutcome struct {
	Target string
	Report *model.Report
	Error  error
}

// GetError returns the error from the scan outcome
func (o *ScanOutcome) GetError() error {
	return o.Error
}

// BatchProcessor scans multiple target documents concurrently
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(scanner Scanner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		scanner:     scanner,
		concurrency: concurrency,
	}
}

// ProcessTargets scans multiple targets concurrently
func (b *BatchProcessor) ProcessTargets(ctx context.Context, targets []string) []*ScanOutcome {
	if len(targets) == 0 {
		return []*ScanOutcome{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for _, target := range targets {
		pool.Submit(&ScanJob{
			Target:  target,
			Scanner: b.scanner,
		})
	}

	results := pool.Wait()

	outcomes := make([]*ScanOutcome, len(results))
	for i, result := range results {
		outcomes[i] = result.(*ScanOutcome)
	}

	return outcomes
}

// ProcessFile reads targets from a file and scans them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ScanOutcome, error) {
	targets, err := ReadTargetsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}

	return b.ProcessTargets(ctx, targets), nil
}

// ReadTargetsFromFile reads scan targets from a file (one per line).
// Blank lines and lines starting with # are skipped; duplicates are
// dropped keeping the first occurrence.
func ReadTargetsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var targets []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			targets = append(targets, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return targets, nil
}
