package detect

import (
	"sync"
	"time"

	"github.com/clauseguard/clauseguard/internal/model"
	"golang.org/x/net/html"
)

// MutationSource is the environment capability that tells the detector a
// subtree was added. The returned stop function unregisters the callback.
type MutationSource interface {
	OnMutation(callback func(added []*html.Node)) (stop func())
}

// Observer is the detector's continuous-observation mode. Mutation bursts
// are collapsed behind a debounce window, newly added subtrees are checked
// against the legal keyword list, and qualifying regions are emitted as
// fragments on an unbounded, non-restartable stream that lives until Stop.
type Observer struct {
	origin   string
	debounce time.Duration
	out      chan model.Fragment
	mutCh    chan []*html.Node
	done     chan struct{}
	stopSrc  func()
	stopOnce sync.Once

	// flushes counts detection passes; read by tests
	mu      sync.Mutex
	flushes int
}

// Observe starts continuous observation against a mutation source.
// Emitted fragments carry SourceKind modal by convention.
func (d *Detector) Observe(src MutationSource, origin string, debounce time.Duration) *Observer {
	if debounce <= 0 {
		debounce = time.Second
	}
	o := &Observer{
		origin:   origin,
		debounce: debounce,
		out:      make(chan model.Fragment, 16),
		mutCh:    make(chan []*html.Node, 16),
		done:     make(chan struct{}),
	}
	o.stopSrc = src.OnMutation(func(added []*html.Node) {
		select {
		case o.mutCh <- added:
		case <-o.done:
		}
	})
	go o.run()
	return o
}

// Fragments returns the stream of detected fragments. The channel is
// closed by Stop.
func (o *Observer) Fragments() <-chan model.Fragment {
	return o.out
}

// Stop terminates the observation session and closes the fragment stream.
// Safe to call more than once.
func (o *Observer) Stop() {
	o.stopOnce.Do(func() {
		if o.stopSrc != nil {
			o.stopSrc()
		}
		close(o.done)
	})
}

// run owns the output channel: it is the only goroutine that sends on or
// closes out, so shutdown cannot race a send.
func (o *Observer) run() {
	var pending []*html.Node
	timer := time.NewTimer(o.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	var timerC <-chan time.Time

	for {
		select {
		case <-o.done:
			close(o.out)
			return

		case nodes := <-o.mutCh:
			pending = append(pending, nodes...)
			// Collapse the burst: restart the window on every mutation
			if timerC != nil && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(o.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			fragments := o.detectAdded(pending)
			pending = nil
			for _, f := range fragments {
				select {
				case o.out <- f:
				case <-o.done:
					close(o.out)
					return
				}
			}
		}
	}
}

// detectAdded checks newly added subtrees against the legal keyword list
func (o *Observer) detectAdded(roots []*html.Node) []model.Fragment {
	o.mu.Lock()
	o.flushes++
	o.mu.Unlock()

	var fragments []model.Fragment
	for _, root := range roots {
		text := visibleText(root)
		if !containsLegalKeyword(text) {
			continue
		}
		title := headingTitle(root)
		if title == "" {
			title = model.SourceModal.DefaultTitle()
		}
		f := model.NewFragment(o.origin, title, text, model.SourceModal, []string{nodePath(root)})
		if f.Admissible() {
			fragments = append(fragments, f)
		}
	}
	return fragments
}

func (o *Observer) flushCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.flushes
}
