package classifier

import "strings"

// IntentPattern is a keyword rule. The first matching pattern wins.
type IntentPattern struct {
	ID                string
	Category          Category
	Detail            string
	Keywords          []string // any substring match; empty matches everything
	Confidence        float64
	Complexity        float64
	RequiresKnowledge bool

	// SuggestSpecialists fills SuggestedSpecialists from the buckets.
	SuggestSpecialists bool
}

// Matches reports whether any keyword occurs in the lower-cased message.
func (p *IntentPattern) Matches(message string) bool {
	if len(p.Keywords) == 0 {
		return true
	}
	return containsAny(strings.ToLower(message), p.Keywords)
}

// SpecialistBucket suggests a specialist when any of its keywords occurs.
type SpecialistBucket struct {
	Specialist string
	Keywords   []string
}

// DefaultSpecialist is suggested when no bucket matches.
const DefaultSpecialist = "vilya"

func defaultPatterns() []*IntentPattern {
	return []*IntentPattern{
		{
			ID:                 "agent_task",
			Category:           CategoryAgentTask,
			Detail:             "User wants specialist agent assistance",
			Keywords:           []string{"design", "create", "implement", "build", "develop", "analyze", "architect"},
			Confidence:         0.7,
			Complexity:         0.8,
			RequiresKnowledge:  true,
			SuggestSpecialists: true,
		},
		{
			ID:         "knowledge_management",
			Category:   CategoryKnowledgeManagement,
			Detail:     "User wants to manage knowledge base",
			Keywords:   []string{"crawl", "upload", "add", "knowledge", "docs", "documentation"},
			Confidence: 0.8,
			Complexity: 0.3,
		},
		{
			ID:                "information",
			Category:          CategoryInformation,
			Detail:            "User wants information",
			Keywords:          []string{"what", "status", "show", "list", "tell me", "how many"},
			Confidence:        0.7,
			Complexity:        0.4,
			RequiresKnowledge: true,
		},
		{
			ID:         "general",
			Category:   CategoryGeneral,
			Detail:     "Conversational or unclear",
			Confidence: 0.5,
			Complexity: 0.2,
		},
	}
}

func defaultBuckets() []SpecialistBucket {
	return []SpecialistBucket{
		{Specialist: "vilya", Keywords: []string{"architecture", "design", "system"}},
		{Specialist: "nenya", Keywords: []string{"requirements", "user", "stakeholder"}},
		{Specialist: "narya", Keywords: []string{"research", "analyze", "compare"}},
	}
}

// matchPatterns applies the rules in order. Falls back to general when a
// custom pattern list has no catch-all.
func (c *Classifier) matchPatterns(message string) Intent {
	msg := strings.ToLower(message)

	for _, p := range c.patterns {
		if !p.Matches(msg) {
			continue
		}
		intent := Intent{
			Category:             p.Category,
			Detail:               p.Detail,
			Confidence:           clamp(p.Confidence),
			Complexity:           clamp(p.Complexity),
			SuggestedSpecialists: []string{},
			RequiresKnowledge:    p.RequiresKnowledge,
		}
		if p.SuggestSpecialists {
			intent.SuggestedSpecialists = c.suggest(msg)
		}
		if intent.Category.Valid() {
			return intent
		}
	}

	return Intent{
		Category:             CategoryGeneral,
		Detail:               "Conversational or unclear",
		Confidence:           0.5,
		Complexity:           0.2,
		SuggestedSpecialists: []string{},
	}
}

// suggest collects every bucket whose keywords occur, in bucket order.
func (c *Classifier) suggest(msg string) []string {
	var out []string
	for _, b := range c.buckets {
		if containsAny(msg, b.Keywords) {
			out = append(out, b.Specialist)
		}
	}
	if len(out) == 0 {
		out = []string{DefaultSpecialist}
	}
	return out
}

func containsAny(msg string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
