package engine

import (
	"context"
	"errors"

	"github.com/clauseguard/clauseguard/internal/model"
)

// ErrUnavailable is returned when the classifier execution boundary
// cannot be reached. It is surfaced immediately; retry policy belongs to
// the caller, never to the engine.
var ErrUnavailable = errors.New("classifier unavailable")

// Engine is the classifier execution boundary. The orchestrator talks to
// this interface whether classification runs in-process or behind a
// worker boundary; the implementation is selected at construction time,
// never by runtime environment sniffing.
type Engine interface {
	// Name identifies the engine in analysis results
	Name() string

	// Confidence is the static confidence attributed to this engine's
	// assessments
	Confidence() float64

	// Classify produces a risk assessment for the given text
	Classify(ctx context.Context, text string) (*model.RiskAssessment, error)

	// Available reports whether the engine can currently serve requests
	Available(ctx context.Context) bool
}
