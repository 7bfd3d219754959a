// Package classifier maps free-text commands to an Intent.
//
// Classification flow:
// 1. Completion provider with a structured JSON prompt (fast tier)
// 2. Keyword rules when the provider is unavailable or its output is unusable
package classifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/flynn-ai/jarvis/internal/model"
	"github.com/flynn-ai/jarvis/internal/prompt"
)

// Category is the handling strategy for a command.
type Category string

const (
	CategoryInformation         Category = "information"
	CategoryAgentTask           Category = "agent_task"
	CategoryKnowledgeManagement Category = "knowledge_management"
	CategoryGeneral             Category = "general"
)

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryInformation, CategoryAgentTask, CategoryKnowledgeManagement, CategoryGeneral:
		return true
	}
	return false
}

// Intent is the interpretation of one command. Category is never empty and
// Confidence and Complexity are within [0,1].
type Intent struct {
	Category             Category `json:"category"`
	Detail               string   `json:"detail"`
	Confidence           float64  `json:"confidence"`
	Complexity           float64  `json:"complexity"`
	SuggestedSpecialists []string `json:"suggested_specialists"`
	RequiresKnowledge    bool     `json:"requires_knowledge"`
}

// Source values recorded in logs.
const (
	sourceModel = "model"
	sourceRules = "rules"
)

// Completer is the subset of the model gateway the classifier needs.
type Completer interface {
	Complete(ctx context.Context, req *model.CompletionRequest) (string, error)
}

// Classification requests always run on the fast tier.
const (
	classifyComplexity = 0.3
	classifyMaxTokens  = 500
)

// Config for classifier.
type Config struct {
	Model  Completer
	Prompt *prompt.Builder
	Logger zerolog.Logger
}

// Classifier classifies commands. It never fails.
type Classifier struct {
	model    Completer
	prompt   *prompt.Builder
	patterns []*IntentPattern
	buckets  []SpecialistBucket
	log      zerolog.Logger
}

// NewClassifier creates a new intent classifier.
func NewClassifier(cfg *Config) *Classifier {
	if cfg == nil {
		cfg = &Config{}
	}
	b := cfg.Prompt
	if b == nil {
		b = prompt.NewBuilder("")
	}
	return &Classifier{
		model:    cfg.Model,
		prompt:   b,
		patterns: defaultPatterns(),
		buckets:  defaultBuckets(),
		log:      cfg.Logger.With().Str("component", "classifier").Logger(),
	}
}

// Classify interprets text using recent conversation turns as context.
func (c *Classifier) Classify(ctx context.Context, text string, recent []prompt.Turn) Intent {
	if c.model == nil {
		return c.Fallback(text)
	}

	content, err := c.model.Complete(ctx, &model.CompletionRequest{
		Prompt:     c.prompt.Classification(text, recent),
		Complexity: classifyComplexity,
		MaxTokens:  classifyMaxTokens,
	})
	if err != nil {
		c.log.Debug().Err(err).Msg("model classification unavailable, using rules")
		return c.Fallback(text)
	}

	intent, err := ParseIntent(content)
	if err != nil {
		c.log.Warn().Err(err).Msg("unusable classification output, using rules")
		return c.Fallback(text)
	}

	c.log.Debug().
		Str("source", sourceModel).
		Str("category", string(intent.Category)).
		Float64("complexity", intent.Complexity).
		Msg("classified")
	return intent
}

// Fallback classifies text with keyword rules only.
func (c *Classifier) Fallback(text string) Intent {
	intent := c.matchPatterns(text)
	c.log.Debug().
		Str("source", sourceRules).
		Str("category", string(intent.Category)).
		Msg("classified")
	return intent
}

// SetPatterns replaces the rule patterns. The last pattern should match
// everything so classification always yields a category.
func (c *Classifier) SetPatterns(patterns []*IntentPattern) {
	c.patterns = patterns
}

// SetBuckets replaces the specialist keyword buckets.
func (c *Classifier) SetBuckets(buckets []SpecialistBucket) {
	c.buckets = buckets
}
