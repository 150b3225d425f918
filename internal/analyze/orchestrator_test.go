package analyze

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clauseguard/clauseguard/internal/cache"
	"github.com/clauseguard/clauseguard/internal/model"
)

// countingEngine is a controllable classifier boundary
type countingEngine struct {
	calls int32
	delay time.Duration
	err   error
}

func (e *countingEngine) Name() string        { return "counting" }
func (e *countingEngine) Confidence() float64 { return 0.5 }

func (e *countingEngine) Available(_ context.Context) bool { return e.err == nil }

func (e *countingEngine) Classify(ctx context.Context, text string) (*model.RiskAssessment, error) {
	atomic.AddInt32(&e.calls, 1)
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return &model.RiskAssessment{
		Overall:         model.LevelLow,
		Summary:         "summary for: " + text[:min(20, len(text))],
		Recommendations: []string{"read it"},
		AnalysisVersion: "test-v1",
	}, nil
}

func (e *countingEngine) count() int32 {
	return atomic.LoadInt32(&e.calls)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func fragment(origin, text string) model.Fragment {
	return model.NewFragment(origin, "Terms", text, model.SourceModal, nil)
}

var longText = strings.Repeat("the terms of service apply to all users of this product without exception ", 3)

func newOrchestrator(eng *countingEngine, opts Options) *Orchestrator {
	return NewOrchestrator(eng, cache.NewResultCache(100, 50, 0.8, nil, nil), opts)
}

func TestAnalyze_ConcurrentCallsShareOneClassification(t *testing.T) {
	eng := &countingEngine{delay: 50 * time.Millisecond}
	o := newOrchestrator(eng, Options{})

	// Same origin and text, different fragment IDs
	a := fragment("https://example.com", longText)
	b := fragment("https://example.com", longText)

	var wg sync.WaitGroup
	results := make([]*model.AnalysisResult, 2)
	errs := make([]error, 2)
	for i, f := range []model.Fragment{a, b} {
		wg.Add(1)
		go func(idx int, frag model.Fragment) {
			defer wg.Done()
			results[idx], errs[idx] = o.Analyze(context.Background(), frag)
		}(i, f)
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
	}
	if got := eng.count(); got != 1 {
		t.Errorf("expected 1 classification for concurrent duplicates, got %d", got)
	}
	if !reflect.DeepEqual(results[0], results[1]) {
		t.Error("expected both callers to observe the same result")
	}
}

func TestAnalyze_SecondCallHitsCache(t *testing.T) {
	eng := &countingEngine{}
	o := newOrchestrator(eng, Options{})
	f := fragment("origin", longText)

	first, err := o.Analyze(context.Background(), f)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	if first.EngineUsed != "counting" || first.Confidence != 0.5 {
		t.Errorf("unexpected result metadata: %+v", first)
	}

	second, err := o.Analyze(context.Background(), f)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if second.ProcessingTimeMs != 0 {
		t.Errorf("expected zero processing time on cache hit, got %d", second.ProcessingTimeMs)
	}
	if got := eng.count(); got != 1 {
		t.Errorf("expected exactly 1 classification total, got %d", got)
	}
}

func TestAnalyze_ChangedContentBypassesCache(t *testing.T) {
	eng := &countingEngine{}
	o := newOrchestrator(eng, Options{})

	f := fragment("origin", longText)
	if _, err := o.Analyze(context.Background(), f); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	// Same origin and text, but a different title: not the same content
	changed := f
	changed.Title = "Updated Terms"
	if _, err := o.Analyze(context.Background(), changed); err != nil {
		t.Fatalf("analyze changed: %v", err)
	}
	if got := eng.count(); got != 2 {
		t.Errorf("expected re-classification for changed title, got %d calls", got)
	}
}

func TestAnalyze_TimeoutLeavesClassificationToComplete(t *testing.T) {
	eng := &countingEngine{delay: 150 * time.Millisecond}
	o := newOrchestrator(eng, Options{Timeout: 30 * time.Millisecond})
	f := fragment("origin", longText)

	_, err := o.Analyze(context.Background(), f)
	if !errors.Is(err, ErrClassificationTimeout) {
		t.Fatalf("expected ErrClassificationTimeout, got %v", err)
	}

	// The underlying classification is not cancelled; it completes and
	// populates the cache for future lookups
	deadline := time.After(2 * time.Second)
	for {
		if _, ok := o.GetCached(f.Fingerprint()); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("classification never populated the cache after waiter timeout")
		case <-time.After(10 * time.Millisecond):
		}
	}

	res, err := o.Analyze(context.Background(), f)
	if err != nil {
		t.Fatalf("post-timeout analyze: %v", err)
	}
	if res.ProcessingTimeMs != 0 {
		t.Error("expected cache hit after the late completion")
	}
	if got := eng.count(); got != 1 {
		t.Errorf("expected a single classification, got %d", got)
	}
}

func TestAnalyze_EngineErrorDoesNotWriteCache(t *testing.T) {
	eng := &countingEngine{err: errors.New("boundary down")}
	o := newOrchestrator(eng, Options{})
	f := fragment("origin", longText)

	if _, err := o.Analyze(context.Background(), f); err == nil {
		t.Fatal("expected engine error to propagate")
	}
	if _, ok := o.GetCached(f.Fingerprint()); ok {
		t.Error("expected no cache write on classifier fault")
	}

	// No retry loop inside the core: the next call dispatches again
	eng.err = nil
	if _, err := o.Analyze(context.Background(), f); err != nil {
		t.Fatalf("recovery analyze: %v", err)
	}
	if got := eng.count(); got != 2 {
		t.Errorf("expected 2 dispatches, got %d", got)
	}
}

func TestAnalyzeIfNew_SkipsInadmissibleAndCached(t *testing.T) {
	eng := &countingEngine{}
	o := newOrchestrator(eng, Options{Workers: 2})

	short := fragment("origin", "too short")
	fresh := fragment("origin", longText)
	cachedFrag := fragment("origin", longText+"cached variant")

	if _, err := o.Analyze(context.Background(), cachedFrag); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	calls := eng.count()

	results := o.AnalyzeIfNew(context.Background(), []model.Fragment{short, fresh, cachedFrag})

	if len(results) != 1 {
		t.Fatalf("expected 1 new result, got %d", len(results))
	}
	if results[0].Fragment.Text != fresh.Text {
		t.Errorf("unexpected analyzed fragment: %q", results[0].Fragment.Text)
	}
	if got := eng.count(); got != calls+1 {
		t.Errorf("expected 1 additional classification, got %d", got-calls)
	}
}

func TestClearOperations(t *testing.T) {
	eng := &countingEngine{}
	o := newOrchestrator(eng, Options{})
	f := fragment("origin", longText)

	if _, err := o.Analyze(context.Background(), f); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	o.Clear(f.Fingerprint())
	if _, ok := o.GetCached(f.Fingerprint()); ok {
		t.Error("expected fingerprint cleared")
	}

	if _, err := o.Analyze(context.Background(), f); err != nil {
		t.Fatalf("re-analyze: %v", err)
	}
	o.ClearAll()
	if _, ok := o.GetCached(f.Fingerprint()); ok {
		t.Error("expected cache emptied")
	}
}
