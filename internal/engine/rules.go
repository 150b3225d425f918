package engine

import (
	"context"

	"github.com/clauseguard/clauseguard/internal/classify"
	"github.com/clauseguard/clauseguard/internal/model"
)

// RulesEngine runs the rule-table classifier in-process. It is the
// default engine and is always available.
type RulesEngine struct {
	classifier *classify.Classifier
}

// NewRulesEngine creates the in-process rules engine
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{classifier: classify.NewClassifier()}
}

// Name returns the engine name
func (e *RulesEngine) Name() string {
	return "rules"
}

// Confidence of deterministic rule matching
func (e *RulesEngine) Confidence() float64 {
	return 1.0
}

// Classify runs the pure classifier. It never fails; the context is
// accepted only to satisfy the boundary contract.
func (e *RulesEngine) Classify(_ context.Context, text string) (*model.RiskAssessment, error) {
	assessment := e.classifier.Classify(text)
	return &assessment, nil
}

// Available always reports true for the in-process engine
func (e *RulesEngine) Available(_ context.Context) bool {
	return true
}
