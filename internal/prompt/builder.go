// Package prompt builds the prompts JARVIS sends to the completion provider.
package prompt

import (
	"fmt"
	"strings"
)

// Builder renders classification and specialist prompts for one user.
type Builder struct {
	User         string
	HistoryTurns int // recent records included in classification prompts
	MaxExcerpts  int // knowledge excerpts included in specialist prompts
	ExcerptChars int
}

// Turn is a past exchange shown to the classifier.
type Turn struct {
	Input    string
	Category string
}

// Excerpt is a knowledge base passage shown to a specialist.
type Excerpt struct {
	Title   string
	Content string
}

// NewBuilder creates a Builder with the default history and excerpt limits.
func NewBuilder(user string) *Builder {
	return &Builder{
		User:         nonEmpty(user, "Sir"),
		HistoryTurns: 3,
		MaxExcerpts:  3,
		ExcerptChars: 500,
	}
}

// Classification renders the intent classification prompt.
func (b *Builder) Classification(text string, recent []Turn) string {
	return fmt.Sprintf(classificationPrompt, text, b.User, b.recentLine(recent))
}

func (b *Builder) recentLine(recent []Turn) string {
	if b.HistoryTurns > 0 && len(recent) > b.HistoryTurns {
		recent = recent[len(recent)-b.HistoryTurns:]
	}
	if len(recent) == 0 {
		return "None"
	}
	var bld strings.Builder
	for _, t := range recent {
		bld.WriteString(fmt.Sprintf("\n  - %q (%s)", t.Input, nonEmpty(t.Category, "unclassified")))
	}
	return bld.String()
}

// Specialist renders the user prompt for a specialist. The specialist's
// skill text goes in the system prompt, not here.
func (b *Builder) Specialist(task, role string, excerpts []Excerpt) string {
	parts := []string{"**User Request:** " + task}

	if len(excerpts) > 0 {
		parts = append(parts, "\n**Knowledge Base Context:**")
		for i, e := range excerpts {
			if b.MaxExcerpts > 0 && i >= b.MaxExcerpts {
				break
			}
			parts = append(parts, fmt.Sprintf("\n- **%s**\n  %s...", nonEmpty(e.Title, "Untitled"), Truncate(e.Content, b.ExcerptChars)))
		}
	}

	parts = append(parts, fmt.Sprintf("\n\nPlease provide a comprehensive analysis following your role as %s.", role))
	return strings.Join(parts, "\n")
}

// Truncate returns the first n runes of s. n <= 0 means no limit.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

const classificationPrompt = `Analyze this command and determine the intent:

Command: %q

Context:
- User: %s
- Recent conversation: %s

Classify the intent as one of:
1. information - User wants to know something (status, facts, etc.)
2. agent_task - User wants agents to analyze, design, or implement something
3. knowledge_management - User wants to manage knowledge base (crawl, upload, search)
4. general - Conversational, greeting, or unclear

Also determine task complexity (0.0-1.0):
- 0.0-0.3: Simple (greetings, status checks, basic queries)
- 0.4-0.7: Moderate (information requests, simple analysis)
- 0.8-1.0: Complex (multi-agent coordination, architecture decisions, technical analysis)

Also suggest which specialist agents (rings) would be helpful:
- nenya (Product Manager): requirements, user stories, stakeholder analysis
- vilya (System Architect): architecture, design, tech stack decisions
- narya (Research Analyst): research, competitive analysis, feasibility

Return ONLY valid JSON in this exact format:
{
  "category": "information|agent_task|knowledge_management|general",
  "detail": "brief explanation",
  "confidence": 0.85,
  "complexity": 0.5,
  "suggested_specialists": ["agent_id"],
  "requires_knowledge": true
}`
