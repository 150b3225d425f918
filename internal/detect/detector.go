package detect

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/clauseguard/clauseguard/internal/model"
	"golang.org/x/net/html"
)

// legalKeywords is the fixed keyword list used by the container-shaped
// heuristics (modal, heading, checkbox, observation mode)
var legalKeywords = []string{
	"terms of service",
	"terms of use",
	"terms and conditions",
	"privacy policy",
	"privacy notice",
	"privacy statement",
	"user agreement",
	"end user license",
	"eula",
	"cookie policy",
	"legal notice",
	"acceptable use",
	"data protection",
}

// legalLinkRe matches legal-document links by visible text or target
var legalLinkRe = regexp.MustCompile(`(?i)terms[-_ ]?of[-_ ]?(service|use)|terms[-_ ]?and[-_ ]?conditions|privacy[-_ ]?(policy|notice|statement)|user[-_ ]?agreement|\beula\b|cookie[-_ ]?policy|legal[-_ ]?notice`)

const headingContainerMinChars = 300

// containsLegalKeyword reports whether lowercased text contains any entry
// of the fixed legal keyword list
func containsLegalKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range legalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Resolver fetches the text of a same-origin link target. Implementations
// must not follow cross-origin targets.
type Resolver interface {
	Resolve(ctx context.Context, target string) (string, error)
}

// Detector locates candidate legal-text regions in a parsed document.
// Heuristics run independently; a failing heuristic is skipped and logged,
// never fatal to the whole detect call. The detector keeps no per-document
// state, so one instance can serve many documents.
type Detector struct {
	resolver Resolver // nil disables link target resolution
	verbose  bool
}

// NewDetector creates a detector. Pass a nil resolver to disable
// resolution of legal-link targets.
func NewDetector(resolver Resolver, verbose bool) *Detector {
	return &Detector{resolver: resolver, verbose: verbose}
}

// Detect runs all heuristics over the document and returns the union of
// admissible candidates. Duplicates across heuristics are not merged
// here; dedup is the orchestrator's job via fingerprints.
func (d *Detector) Detect(ctx context.Context, doc *html.Node, origin string) []model.Fragment {
	heuristics := []struct {
		name string
		run  func(context.Context, *html.Node, string) []model.Fragment
	}{
		{"link", d.detectLinks},
		{"modal", d.detectModals},
		{"embedded", d.detectEmbedded},
		{"heading", d.detectHeadings},
		{"checkbox", d.detectCheckboxes},
	}

	var fragments []model.Fragment
	for _, h := range heuristics {
		candidates := d.runHeuristic(ctx, h.name, h.run, doc, origin)
		for _, f := range candidates {
			if f.Admissible() {
				fragments = append(fragments, f)
			} else if d.verbose {
				fmt.Fprintf(os.Stderr, "detect: skipping %s fragment below minimum length (%d <= %d)\n",
					f.SourceKind, len(f.Text), f.SourceKind.MinTextLength())
			}
		}
	}
	return fragments
}

// runHeuristic isolates a single heuristic: a panic inside one is logged
// as a skip and the remaining heuristics still run
func (d *Detector) runHeuristic(ctx context.Context, name string, run func(context.Context, *html.Node, string) []model.Fragment, doc *html.Node, origin string) (out []model.Fragment) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "detect: %s heuristic skipped: %v\n", name, r)
			out = nil
		}
	}()
	return run(ctx, doc, origin)
}

// detectLinks finds hyperlinks whose visible text or target matches the
// legal-term regex set. Same-origin targets are resolved and extracted;
// cross-origin candidates are dropped. Same-page anchors are resolved
// within the live document.
func (d *Detector) detectLinks(ctx context.Context, doc *html.Node, origin string) []model.Fragment {
	originURL, err := url.Parse(origin)
	if err != nil {
		originURL = nil
	}

	links := findAll(doc, func(n *html.Node) bool {
		return isElement(n, "a") && getAttr(n, "href") != ""
	})

	var fragments []model.Fragment
	for _, link := range links {
		href := strings.TrimSpace(getAttr(link, "href"))
		label := visibleText(link)
		if !legalLinkRe.MatchString(label) && !legalLinkRe.MatchString(href) {
			continue
		}

		title := label
		if title == "" {
			title = model.SourceLink.DefaultTitle()
		}
		hints := []string{"href=" + href, nodePath(link)}

		// Same-page anchor: extract the referenced region directly
		if strings.HasPrefix(href, "#") {
			id := strings.TrimPrefix(href, "#")
			target := findFirst(doc, func(n *html.Node) bool { return getAttr(n, "id") == id })
			if target != nil {
				fragments = append(fragments, model.NewFragment(origin, title, visibleText(target), model.SourceLink, hints))
			}
			continue
		}

		if d.resolver == nil || originURL == nil {
			continue
		}
		target, err := originURL.Parse(href)
		if err != nil {
			continue
		}
		if target.Host != originURL.Host {
			// No cross-origin fetches
			continue
		}
		text, err := d.resolver.Resolve(ctx, target.String())
		if err != nil {
			if d.verbose {
				fmt.Fprintf(os.Stderr, "detect: link resolution skipped for %s: %v\n", target, err)
			}
			continue
		}
		fragments = append(fragments, model.NewFragment(origin, title, text, model.SourceLink, hints))
	}
	return fragments
}

// detectModals finds dialog/modal/popup containers whose flattened text
// contains a legal keyword
func (d *Detector) detectModals(_ context.Context, doc *html.Node, origin string) []model.Fragment {
	containers := findAll(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		if n.Data == "dialog" || getAttr(n, "role") == "dialog" || getAttr(n, "role") == "alertdialog" {
			return true
		}
		return attrContains(n, "modal", "dialog", "popup", "overlay")
	})

	var fragments []model.Fragment
	for _, c := range containers {
		text := visibleText(c)
		if !containsLegalKeyword(text) {
			continue
		}
		kind := model.SourceModal
		if attrContains(c, "popup") {
			kind = model.SourcePopup
		}
		title := headingTitle(c)
		if title == "" {
			title = kind.DefaultTitle()
		}
		fragments = append(fragments, model.NewFragment(origin, title, text, kind, []string{nodePath(c)}))
	}
	return fragments
}

// embeddedPatterns is the fixed list of structural/attribute patterns
// associated with inline legal content
var embeddedPatterns = []struct {
	name  string
	match func(*html.Node) bool
}{
	{"legal class/id", func(n *html.Node) bool {
		return attrContains(n, "legal-text", "terms-content", "privacy-content", "tos-text", "policy-body")
	}},
	{"terms section", func(n *html.Node) bool {
		return isElement(n, "section", "article") && attrContains(n, "terms", "privacy", "legal")
	}},
	{"named agreement field", func(n *html.Node) bool {
		if !isElement(n, "textarea", "pre") {
			return false
		}
		name := strings.ToLower(getAttr(n, "name"))
		return strings.Contains(name, "terms") || strings.Contains(name, "privacy") || strings.Contains(name, "agreement")
	}},
}

// detectEmbedded matches a fixed pattern list directly against the
// document structure
func (d *Detector) detectEmbedded(_ context.Context, doc *html.Node, origin string) []model.Fragment {
	var fragments []model.Fragment
	for _, p := range embeddedPatterns {
		for _, n := range findAll(doc, p.match) {
			text := visibleText(n)
			title := headingTitle(n)
			if title == "" {
				title = model.SourceEmbedded.DefaultTitle()
			}
			fragments = append(fragments, model.NewFragment(origin, title, text, model.SourceEmbedded,
				[]string{"pattern=" + p.name, nodePath(n)}))
		}
	}
	return fragments
}

// detectHeadings anchors on legal-keyword headings and walks up at most
// three ancestor levels to the smallest container whose flattened text
// exceeds 300 characters. Headings with no qualifying ancestor are
// dropped (the heading text alone is below the gate by construction).
func (d *Detector) detectHeadings(_ context.Context, doc *html.Node, origin string) []model.Fragment {
	headings := findAll(doc, func(n *html.Node) bool {
		return isHeading(n) && containsLegalKeyword(visibleText(n))
	})

	var fragments []model.Fragment
	for _, h := range headings {
		var region *html.Node
		ancestor := h.Parent
		for level := 0; level < 3 && ancestor != nil; level++ {
			if len(visibleText(ancestor)) > headingContainerMinChars {
				region = ancestor
				break
			}
			ancestor = ancestor.Parent
		}
		if region == nil {
			region = h
		}
		text := visibleText(region)
		if len(text) < headingContainerMinChars {
			continue
		}
		fragments = append(fragments, model.NewFragment(origin, visibleText(h), text, model.SourceEmbedded,
			[]string{"anchor=heading", nodePath(region)}))
	}
	return fragments
}

// detectCheckboxes finds checkbox inputs with legal-keyword labels and
// walks up at most five ancestor levels to a container with more than
// 100 characters of legal text
func (d *Detector) detectCheckboxes(_ context.Context, doc *html.Node, origin string) []model.Fragment {
	checkboxes := findAll(doc, func(n *html.Node) bool {
		return isElement(n, "input") && strings.EqualFold(getAttr(n, "type"), "checkbox")
	})

	var fragments []model.Fragment
	for _, cb := range checkboxes {
		label := associatedLabel(doc, cb)
		if label == nil || !containsLegalKeyword(visibleText(label)) {
			continue
		}

		ancestor := cb.Parent
		for level := 0; level < 5 && ancestor != nil; level++ {
			text := visibleText(ancestor)
			if len(text) > 100 && containsLegalKeyword(text) {
				title := headingTitle(ancestor)
				if title == "" {
					title = model.SourceCheckbox.DefaultTitle()
				}
				fragments = append(fragments, model.NewFragment(origin, title, text, model.SourceCheckbox,
					[]string{nodePath(ancestor)}))
				break
			}
			ancestor = ancestor.Parent
		}
	}
	return fragments
}

// associatedLabel finds the label for a checkbox: a label[for] matching
// its id, or the nearest label ancestor
func associatedLabel(doc *html.Node, checkbox *html.Node) *html.Node {
	if id := getAttr(checkbox, "id"); id != "" {
		if label := findFirst(doc, func(n *html.Node) bool {
			return isElement(n, "label") && getAttr(n, "for") == id
		}); label != nil {
			return label
		}
	}
	for cur := checkbox.Parent; cur != nil; cur = cur.Parent {
		if isElement(cur, "label") {
			return cur
		}
	}
	return nil
}
