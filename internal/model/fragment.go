package model

import (
	"time"

	"github.com/google/uuid"
)

// Fragment represents a candidate legal-text region detected in a document
type Fragment struct {
	ID           string     `json:"id"`                      // Opaque unique token, assigned at detection time
	Origin       string     `json:"origin"`                  // Document/page identifier, stable per session
	Title        string     `json:"title"`                   // Nearest heading text or a per-kind default
	Text         string     `json:"text"`                    // Normalized visible text, scripts/styles stripped
	ExtractedAt  time.Time  `json:"extracted_at"`            // When the fragment was extracted
	SourceKind   SourceKind `json:"source_kind"`             // Which detection surface produced it
	LocatorHints []string   `json:"locator_hints,omitempty"` // Opaque locators for re-finding the region
}

// SourceKind identifies the detection surface a fragment came from
type SourceKind string

const (
	SourcePopup    SourceKind = "popup"
	SourceModal    SourceKind = "modal"
	SourceLink     SourceKind = "link"
	SourceCheckbox SourceKind = "checkbox"
	SourceEmbedded SourceKind = "embedded"
)

// DefaultTitle returns the fallback title used when no heading is found
func (k SourceKind) DefaultTitle() string {
	switch k {
	case SourcePopup:
		return "Popup Agreement"
	case SourceModal:
		return "Dialog Agreement"
	case SourceLink:
		return "Linked Legal Document"
	case SourceCheckbox:
		return "Consent Terms"
	case SourceEmbedded:
		return "Embedded Legal Text"
	default:
		return "Legal Document"
	}
}

// MinTextLength returns the text-length threshold for a fragment of this
// kind: only fragments whose text exceeds it are admissible for
// classification. Shorter extracts are detector noise and are discarded,
// not surfaced as errors.
func (k SourceKind) MinTextLength() int {
	switch k {
	case SourcePopup, SourceModal, SourceCheckbox:
		return 100
	case SourceLink, SourceEmbedded:
		return 200
	default:
		return 200
	}
}

// NewFragment creates a Fragment with a fresh ID and extraction timestamp
func NewFragment(origin, title, text string, kind SourceKind, hints []string) Fragment {
	return Fragment{
		ID:           uuid.NewString(),
		Origin:       origin,
		Title:        title,
		Text:         text,
		ExtractedAt:  time.Now().UTC(),
		SourceKind:   kind,
		LocatorHints: hints,
	}
}

// Admissible reports whether the fragment's text exceeds its source
// kind's length threshold. The bound is strict: a fragment exactly at
// the threshold is not admissible.
func (f Fragment) Admissible() bool {
	return len(f.Text) > f.SourceKind.MinTextLength()
}

// Fingerprint returns the (origin, text) identity of the fragment.
// Two fragments with identical origin and text are the same logical
// unit regardless of ID or locator hints.
func (f Fragment) Fingerprint() Fingerprint {
	return Fingerprint{Origin: f.Origin, Text: f.Text}
}

// Fingerprint is the exact-match dedup/cache identity of a fragment
type Fingerprint struct {
	Origin string `json:"origin"`
	Text   string `json:"text"`
}

// Key returns the fingerprint as a single map key. Origin and text are
// joined with a NUL byte so the mapping stays lossless.
func (fp Fingerprint) Key() string {
	return fp.Origin + "\x00" + fp.Text
}
