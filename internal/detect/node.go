package detect

import (
	"strings"

	"golang.org/x/net/html"
)

// Node helpers shared by all heuristics.

// findAll returns all nodes under n matching the predicate, in document order
func findAll(n *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if predicate(node) {
			results = append(results, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return results
}

// findFirst returns the first node under n matching the predicate
func findFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}

// getAttr returns the value of the named attribute, or ""
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// attrContains reports whether the class or id attribute contains any of
// the given lowercase markers
func attrContains(n *html.Node, markers ...string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	haystack := strings.ToLower(getAttr(n, "class") + " " + getAttr(n, "id"))
	for _, m := range markers {
		if strings.Contains(haystack, m) {
			return true
		}
	}
	return false
}

// isElement reports whether n is an element with one of the given tags
func isElement(n *html.Node, tags ...string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, tag := range tags {
		if n.Data == tag {
			return true
		}
	}
	return false
}

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

func isHeading(n *html.Node) bool {
	return isElement(n, headingTags...)
}

// visibleText extracts the visible text of a subtree, skipping script,
// style, noscript and iframe content, with whitespace normalized to
// single spaces
func visibleText(n *html.Node) string {
	var parts []string

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}
		if node.Type == html.TextNode {
			if text := strings.TrimSpace(node.Data); text != "" {
				parts = append(parts, strings.Fields(text)...)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return strings.Join(parts, " ")
}

// headingTitle returns the text of the first heading-like descendant, or ""
func headingTitle(n *html.Node) string {
	heading := findFirst(n, isHeading)
	if heading == nil {
		return ""
	}
	return visibleText(heading)
}

// nodePath builds an opaque locator hint for a node: its tag/id/class
// chain up to five ancestors. Not interpreted by the core.
func nodePath(n *html.Node) string {
	var segments []string
	for cur := n; cur != nil && len(segments) < 5; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		seg := cur.Data
		if id := getAttr(cur, "id"); id != "" {
			seg += "#" + id
		} else if class := getAttr(cur, "class"); class != "" {
			seg += "." + strings.Fields(class)[0]
		}
		segments = append(segments, seg)
	}
	// Reverse into document order
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, " > ")
}
