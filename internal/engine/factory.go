package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/clauseguard/clauseguard/internal/model"
)

// New selects the classifier execution boundary from configuration.
// Selection happens once, at construction time.
func New(cfg model.EngineConfig, timeout time.Duration) (Engine, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "rules":
		return NewRulesEngine(), nil

	case "remote":
		if cfg.RemoteURL == "" {
			return nil, fmt.Errorf("remote engine requires a remote_url")
		}
		return NewRemoteEngine(cfg.RemoteURL, timeout), nil

	case "llm":
		return NewLLMEngine(LLMOptions{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
		})

	default:
		return nil, fmt.Errorf("unknown engine kind: %s (supported: rules, remote, llm)", cfg.Kind)
	}
}
