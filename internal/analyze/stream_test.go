package analyze

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clauseguard/clauseguard/internal/detect"
	"github.com/clauseguard/clauseguard/internal/model"
	"golang.org/x/net/html"
)

// domFeed implements detect.MutationSource
type domFeed struct {
	mu sync.Mutex
	cb func([]*html.Node)
}

func (f *domFeed) OnMutation(cb func([]*html.Node)) func() {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
	return func() {}
}

func (f *domFeed) emit(nodes ...*html.Node) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	cb(nodes)
}

func addedSubtree(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	var div *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" {
			div = n
			return
		}
		for c := n.FirstChild; c != nil && div == nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if div == nil {
		t.Fatal("fixture has no div")
	}
	return div
}

// Observed fragments feed the orchestrator like any other detection:
// debounced emission, analyzed once, cached, and skipped on repeat.
func TestObservedFragmentsFeedAnalyzeIfNew(t *testing.T) {
	eng := &countingEngine{}
	o := newOrchestrator(eng, Options{Workers: 2})

	feed := &domFeed{}
	d := detect.NewDetector(nil, false)
	obs := d.Observe(feed, "https://example.com/app", 20*time.Millisecond)
	defer obs.Stop()

	modal := `<div class="modal"><h2>Terms of Service</h2><p>By continuing you accept
the terms of service governing your use of this product, including how we
handle your account and communications.</p></div>`

	feed.emit(addedSubtree(t, modal))

	var fragment model.Fragment
	select {
	case fragment = <-obs.Fragments():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for observed fragment")
	}
	if fragment.SourceKind != model.SourceModal {
		t.Fatalf("expected modal fragment, got %s", fragment.SourceKind)
	}

	results := o.AnalyzeIfNew(context.Background(), []model.Fragment{fragment})
	if len(results) != 1 {
		t.Fatalf("expected 1 analyzed fragment, got %d", len(results))
	}
	if _, ok := o.GetCached(fragment.Fingerprint()); !ok {
		t.Error("expected observed fragment cached after analysis")
	}

	// The same content observed again is served from cache, not re-analyzed
	feed.emit(addedSubtree(t, modal))
	select {
	case again := <-obs.Fragments():
		if got := o.AnalyzeIfNew(context.Background(), []model.Fragment{again}); len(got) != 0 {
			t.Errorf("expected repeat observation skipped, got %d results", len(got))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for repeat fragment")
	}

	if got := eng.count(); got != 1 {
		t.Errorf("expected a single classification across observations, got %d", got)
	}
}
