package analyze

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/clauseguard/clauseguard/internal/cache"
	"github.com/clauseguard/clauseguard/internal/engine"
	"github.com/clauseguard/clauseguard/internal/model"
	"github.com/google/uuid"
)

// ErrClassificationTimeout is surfaced to a caller whose wait for a
// classification exceeded the orchestrator timeout. The fragment is not
// retried automatically; retry is the caller's decision.
var ErrClassificationTimeout = errors.New("classification timeout")

// DefaultTimeout bounds how long a caller waits for a classification
const DefaultTimeout = 30 * time.Second

// inflightCall tracks one running classification. Waiters block on done;
// result and err are written exactly once before done is closed.
type inflightCall struct {
	done   chan struct{}
	result *model.AnalysisResult
	err    error
}

// Orchestrator coordinates fragments into classifier calls. It
// guarantees at most one classification in flight per fingerprint,
// bounds each caller's wait, and populates the result cache on success.
// It is the only concurrency-aware owner in the pipeline.
type Orchestrator struct {
	engine  engine.Engine
	cache   *cache.ResultCache
	timeout time.Duration
	workers int
	verbose bool

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

// Options configures an Orchestrator
type Options struct {
	Timeout time.Duration // per-caller wait bound, DefaultTimeout if zero
	Workers int           // AnalyzeIfNew fan-out bound, 4 if zero
	Verbose bool
}

// NewOrchestrator creates an orchestrator over an engine and a result cache
func NewOrchestrator(eng engine.Engine, results *cache.ResultCache, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Orchestrator{
		engine:   eng,
		cache:    results,
		timeout:  opts.Timeout,
		workers:  opts.Workers,
		verbose:  opts.Verbose,
		inflight: make(map[string]*inflightCall),
	}
}

// Analyze classifies one fragment, deduplicating against in-flight
// requests and the cache. Concurrent calls for the same fingerprint
// share a single classification and observe the same result.
func (o *Orchestrator) Analyze(ctx context.Context, fragment model.Fragment) (*model.AnalysisResult, error) {
	fp := fragment.Fingerprint()
	key := fp.Key()

	o.mu.Lock()
	if call, ok := o.inflight[key]; ok {
		o.mu.Unlock()
		return o.wait(ctx, call)
	}

	if cached, ok := o.cache.Get(fp); ok && cached.IsSameContent(fragment) {
		o.mu.Unlock()
		// A zero processing time signals the cache hit
		hit := *cached
		hit.ProcessingTimeMs = 0
		return &hit, nil
	}

	call := &inflightCall{done: make(chan struct{})}
	o.inflight[key] = call
	o.mu.Unlock()

	go o.run(ctx, call, fragment, fp)

	return o.wait(ctx, call)
}

// run owns one classification. It is never cancelled mid-flight: waiters
// may time out, but the classification completes and populates the cache
// for future lookups before the in-flight entry is cleared.
func (o *Orchestrator) run(ctx context.Context, call *inflightCall, fragment model.Fragment, fp model.Fingerprint) {
	correlationID := uuid.NewString()
	if o.verbose {
		fmt.Fprintf(os.Stderr, "analyze: dispatching %s fragment %s (correlation %s)\n",
			fragment.SourceKind, fragment.ID, correlationID)
	}

	start := time.Now()
	assessment, err := o.engine.Classify(context.WithoutCancel(ctx), fragment.Text)
	if err != nil {
		call.err = fmt.Errorf("classify fragment %s: %w", fragment.ID, err)
	} else {
		call.result = &model.AnalysisResult{
			Fragment:         fragment,
			Assessment:       *assessment,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			EngineUsed:       o.engine.Name(),
			Confidence:       o.engine.Confidence(),
		}
		// Writes only happen on full success, so a classifier fault can
		// never corrupt the cache
		o.cache.Put(fp, call.result)
	}

	o.mu.Lock()
	delete(o.inflight, fp.Key())
	o.mu.Unlock()
	close(call.done)
}

// wait blocks until the shared classification resolves, the caller's
// wait times out, or the caller's context ends
func (o *Orchestrator) wait(ctx context.Context, call *inflightCall) (*model.AnalysisResult, error) {
	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	select {
	case <-call.done:
		return call.result, call.err
	case <-timer.C:
		return nil, ErrClassificationTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AnalyzeIfNew analyzes the admissible fragments whose content is not
// already cached. Skipped fragments (inadmissible, or cached with
// identical text and title) produce no output entry; results preserve
// the input order of the fragments that were analyzed.
func (o *Orchestrator) AnalyzeIfNew(ctx context.Context, fragments []model.Fragment) []*model.AnalysisResult {
	admitted := make([]model.Fragment, 0, len(fragments))
	for _, f := range fragments {
		if !f.Admissible() {
			continue
		}
		if cached, ok := o.cache.Get(f.Fingerprint()); ok && cached.IsSameContent(f) {
			if o.verbose {
				fmt.Fprintf(os.Stderr, "analyze: skipping cached fragment %s\n", f.ID)
			}
			continue
		}
		admitted = append(admitted, f)
	}
	if len(admitted) == 0 {
		return nil
	}

	results := make([]*model.AnalysisResult, len(admitted))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, o.workers)

	for i, f := range admitted {
		wg.Add(1)
		go func(idx int, fragment model.Fragment) {
			defer wg.Done()
			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-semaphore }()

			res, err := o.Analyze(ctx, fragment)
			if err != nil {
				if o.verbose {
					fmt.Fprintf(os.Stderr, "analyze: fragment %s failed: %v\n", fragment.ID, err)
				}
				return
			}
			results[idx] = res
		}(i, f)
	}
	wg.Wait()

	out := make([]*model.AnalysisResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// GetCached returns the cached result for a fingerprint, if any
func (o *Orchestrator) GetCached(fp model.Fingerprint) (*model.AnalysisResult, bool) {
	return o.cache.Get(fp)
}

// Clear removes one fingerprint's cached result
func (o *Orchestrator) Clear(fp model.Fingerprint) {
	o.cache.Remove(fp)
}

// ClearAll empties the result cache
func (o *Orchestrator) ClearAll() {
	o.cache.Clear()
}

// EvictIfOverCapacity runs a cache capacity check
func (o *Orchestrator) EvictIfOverCapacity() int {
	return o.cache.EvictIfOverCapacity()
}
