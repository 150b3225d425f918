package detect

import (
	"context"
	"strings"
	"testing"

	"github.com/clauseguard/clauseguard/internal/model"
	"golang.org/x/net/html"
)

const filler = "This agreement governs your use of the service and sets out the obligations of both parties in considerable detail, including everything either party could reasonably be expected to know before accepting. "

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func kinds(fragments []model.Fragment) map[model.SourceKind]int {
	counts := make(map[model.SourceKind]int)
	for _, f := range fragments {
		counts[f.SourceKind]++
	}
	return counts
}

func TestDetect_ModalHeuristic(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div class="modal"><h2>Privacy Policy</h2><p>`+filler+`</p></div>
	</body></html>`)

	d := NewDetector(nil, false)
	fragments := d.Detect(context.Background(), doc, "https://example.com/page")

	if got := kinds(fragments)[model.SourceModal]; got != 1 {
		t.Fatalf("expected 1 modal fragment, got %d (%v)", got, kinds(fragments))
	}
	f := fragments[0]
	if f.Title != "Privacy Policy" {
		t.Errorf("expected heading title, got %q", f.Title)
	}
	if f.Origin != "https://example.com/page" {
		t.Errorf("unexpected origin %q", f.Origin)
	}
	if f.ID == "" || len(f.LocatorHints) == 0 {
		t.Error("expected fragment id and locator hints to be set")
	}
}

func TestDetect_PopupClassTagsPopupKind(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div class="cookie-popup">Our cookie policy applies. `+filler+`</div>
	</body></html>`)

	d := NewDetector(nil, false)
	fragments := d.Detect(context.Background(), doc, "origin")

	if got := kinds(fragments)[model.SourcePopup]; got != 1 {
		t.Errorf("expected 1 popup fragment, got %v", kinds(fragments))
	}
}

func TestDetect_BelowMinimumLengthDiscarded(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div class="modal">Short terms of service text.</div>
	</body></html>`)

	d := NewDetector(nil, false)
	fragments := d.Detect(context.Background(), doc, "origin")

	if len(fragments) != 0 {
		t.Errorf("expected short modal discarded, got %d fragments", len(fragments))
	}
}

func TestDetect_HeadingAnchoredContainer(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div id="legal">
			<h2>Terms of Service</h2>
			<p>`+filler+filler+`</p>
		</div>
	</body></html>`)

	d := NewDetector(nil, false)
	fragments := d.Detect(context.Background(), doc, "origin")

	var found *model.Fragment
	for i := range fragments {
		if fragments[i].SourceKind == model.SourceEmbedded && fragments[i].Title == "Terms of Service" {
			found = &fragments[i]
		}
	}
	if found == nil {
		t.Fatalf("expected heading-anchored fragment, got %v", kinds(fragments))
	}
	if len(found.Text) <= headingContainerMinChars {
		t.Errorf("expected container text above %d chars, got %d", headingContainerMinChars, len(found.Text))
	}
}

func TestDetect_HeadingWithSmallContainerDropped(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div><h3>Terms of Service</h3><p>Too short.</p></div>
	</body></html>`)

	d := NewDetector(nil, false)
	fragments := d.Detect(context.Background(), doc, "origin")

	if len(fragments) != 0 {
		t.Errorf("expected no fragments for a short heading section, got %d", len(fragments))
	}
}

func TestDetect_CheckboxHeuristic(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div class="signup">
			<p>By signing up you accept the terms of service below. `+filler+`</p>
			<input type="checkbox" id="accept">
			<label for="accept">I agree to the terms of service</label>
		</div>
	</body></html>`)

	d := NewDetector(nil, false)
	fragments := d.Detect(context.Background(), doc, "origin")

	if got := kinds(fragments)[model.SourceCheckbox]; got != 1 {
		t.Errorf("expected 1 checkbox fragment, got %v", kinds(fragments))
	}
}

func TestDetect_CheckboxWithoutLegalLabelIgnored(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<input type="checkbox" id="news">
		<label for="news">Send me the newsletter</label>
		<p>`+filler+`</p>
	</body></html>`)

	d := NewDetector(nil, false)
	fragments := d.Detect(context.Background(), doc, "origin")

	if got := kinds(fragments)[model.SourceCheckbox]; got != 0 {
		t.Errorf("expected no checkbox fragments, got %d", got)
	}
}

func TestDetect_EmbeddedSection(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<section class="terms"><h1>Agreement</h1><p>`+filler+`</p></section>
	</body></html>`)

	d := NewDetector(nil, false)
	fragments := d.Detect(context.Background(), doc, "origin")

	if got := kinds(fragments)[model.SourceEmbedded]; got != 1 {
		t.Errorf("expected 1 embedded fragment, got %v", kinds(fragments))
	}
}

func TestDetect_SamePageAnchorLink(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<a href="#tos">Terms of Service</a>
		<div id="tos"><p>`+filler+`</p></div>
	</body></html>`)

	d := NewDetector(nil, false)
	fragments := d.Detect(context.Background(), doc, "https://example.com/")

	if got := kinds(fragments)[model.SourceLink]; got != 1 {
		t.Fatalf("expected 1 link fragment, got %v", kinds(fragments))
	}
	if fragments[0].Title != "Terms of Service" {
		t.Errorf("expected link label as title, got %q", fragments[0].Title)
	}
}

type fakeResolver struct {
	text    string
	targets []string
	err     error
}

func (r *fakeResolver) Resolve(_ context.Context, target string) (string, error) {
	r.targets = append(r.targets, target)
	if r.err != nil {
		return "", r.err
	}
	return r.text, nil
}

func TestDetect_SameOriginLinkResolved(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<a href="/legal/privacy-policy">Privacy Policy</a>
	</body></html>`)

	resolver := &fakeResolver{text: strings.Repeat(filler, 2)}
	d := NewDetector(resolver, false)
	fragments := d.Detect(context.Background(), doc, "https://example.com/home")

	if len(resolver.targets) != 1 || resolver.targets[0] != "https://example.com/legal/privacy-policy" {
		t.Fatalf("expected one same-origin resolution, got %v", resolver.targets)
	}
	if got := kinds(fragments)[model.SourceLink]; got != 1 {
		t.Errorf("expected 1 link fragment, got %v", kinds(fragments))
	}
}

func TestDetect_CrossOriginLinkDropped(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<a href="https://other.example.net/terms-of-service">Terms of Service</a>
	</body></html>`)

	resolver := &fakeResolver{text: strings.Repeat(filler, 2)}
	d := NewDetector(resolver, false)
	fragments := d.Detect(context.Background(), doc, "https://example.com/home")

	if len(resolver.targets) != 0 {
		t.Errorf("expected no cross-origin fetches, got %v", resolver.targets)
	}
	if len(fragments) != 0 {
		t.Errorf("expected cross-origin candidate dropped, got %d fragments", len(fragments))
	}
}

func TestDetect_NonLegalLinkIgnored(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<a href="/pricing">Pricing</a>
	</body></html>`)

	resolver := &fakeResolver{text: strings.Repeat(filler, 2)}
	d := NewDetector(resolver, false)
	if fragments := d.Detect(context.Background(), doc, "https://example.com/"); len(fragments) != 0 {
		t.Errorf("expected no fragments, got %d", len(fragments))
	}
	if len(resolver.targets) != 0 {
		t.Errorf("expected no resolutions, got %v", resolver.targets)
	}
}

func TestVisibleText_StripsScriptsAndNormalizesWhitespace(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div>  hello
		<script>var x = 1;</script>
		<style>.a{}</style>
		world  </div>
	</body></html>`)

	if got := visibleText(doc); got != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", got)
	}
}
