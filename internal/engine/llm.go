package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clauseguard/clauseguard/internal/model"
	openai "github.com/sashabaranov/go-openai"
)

// LLMEngine is the optional pluggable classifier behind the same
// boundary as the rule tables. It asks a chat model for an assessment in
// the exact JSON shape of model.RiskAssessment. It is never selected by
// default and its output is clearly tagged with the model used.
type LLMEngine struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// LLMOptions configures the LLM engine
type LLMOptions struct {
	APIKey    string
	Model     string
	BaseURL   string // OpenAI-compatible endpoints (e.g. a local ollama server)
	MaxTokens int
}

// NewLLMEngine creates an LLM-backed engine. A BaseURL without an API
// key is accepted for self-hosted endpoints.
func NewLLMEngine(opts LLMOptions) (*LLMEngine, error) {
	if opts.APIKey == "" && opts.BaseURL == "" {
		return nil, fmt.Errorf("llm engine requires an API key or a base URL")
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1500
	}

	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = opts.BaseURL
	}

	return &LLMEngine{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}, nil
}

// Name returns the engine name
func (e *LLMEngine) Name() string {
	return "llm:" + e.model
}

// Confidence attributed to model-generated assessments
func (e *LLMEngine) Confidence() float64 {
	return 0.6
}

// Available checks the endpoint with a lightweight model listing
func (e *LLMEngine) Available(ctx context.Context) bool {
	_, err := e.client.ListModels(ctx)
	return err == nil
}

// Classify asks the model for an assessment and decodes its JSON reply
func (e *LLMEngine) Classify(ctx context.Context, text string) (*model.RiskAssessment, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildClassifyPrompt(text)},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion")
	}

	raw := extractJSON(resp.Choices[0].Message.Content)
	var assessment model.RiskAssessment
	if err := json.Unmarshal([]byte(raw), &assessment); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	assessment.AnalysisVersion = "llm:" + e.model
	return &assessment, nil
}

const classifySystemPrompt = `You analyze legal documents (terms of service, privacy policies) for user risk. Respond with a single JSON object and nothing else.`

func buildClassifyPrompt(text string) string {
	return fmt.Sprintf(`Assess the following legal text across exactly these seven categories, in this order: data_collection, data_sharing, user_rights, account_termination, liability, changes_to_terms, dispute_resolution.

Each category gets a level of "low", "medium", "high" or "critical". Reply with JSON of this shape:

{"overall":"low|medium|high|critical","categories":[{"name":"data_collection","level":"low","description":"","evidence":[],"impact":""},...],"summary":"one paragraph","key_points":["at most five"],"recommendations":["at least one"]}

Text to assess:
%s`, text)
}

// extractJSON trims prose and code fences around the model's JSON reply
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
