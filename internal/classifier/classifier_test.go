package classifier

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flynn-ai/jarvis/internal/model"
	"github.com/flynn-ai/jarvis/internal/prompt"
)

type stubCompleter struct {
	text string
	err  error
	reqs []*model.CompletionRequest
}

func (s *stubCompleter) Complete(ctx context.Context, req *model.CompletionRequest) (string, error) {
	s.reqs = append(s.reqs, req)
	return s.text, s.err
}

func newTestClassifier(m Completer) *Classifier {
	return NewClassifier(&Config{Model: m, Prompt: prompt.NewBuilder("Sir"), Logger: zerolog.Nop()})
}

func TestFallbackRules(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{
			text: "Design an auth system",
			want: Intent{Category: CategoryAgentTask, Detail: "User wants specialist agent assistance", Confidence: 0.7, Complexity: 0.8, SuggestedSpecialists: []string{"vilya"}, RequiresKnowledge: true},
		},
		{
			text: "build it",
			want: Intent{Category: CategoryAgentTask, Detail: "User wants specialist agent assistance", Confidence: 0.7, Complexity: 0.8, SuggestedSpecialists: []string{"vilya"}, RequiresKnowledge: true},
		},
		{
			text: "Design user requirements and research the market",
			want: Intent{Category: CategoryAgentTask, Detail: "User wants specialist agent assistance", Confidence: 0.7, Complexity: 0.8, SuggestedSpecialists: []string{"vilya", "nenya", "narya"}, RequiresKnowledge: true},
		},
		{
			text: "Crawl the docs",
			want: Intent{Category: CategoryKnowledgeManagement, Detail: "User wants to manage knowledge base", Confidence: 0.8, Complexity: 0.3, SuggestedSpecialists: []string{}},
		},
		{
			text: "What is the status of the project?",
			want: Intent{Category: CategoryInformation, Detail: "User wants information", Confidence: 0.7, Complexity: 0.4, SuggestedSpecialists: []string{}, RequiresKnowledge: true},
		},
		{
			text: "hello",
			want: Intent{Category: CategoryGeneral, Detail: "Conversational or unclear", Confidence: 0.5, Complexity: 0.2, SuggestedSpecialists: []string{}},
		},
		{
			text: "",
			want: Intent{Category: CategoryGeneral, Detail: "Conversational or unclear", Confidence: 0.5, Complexity: 0.2, SuggestedSpecialists: []string{}},
		},
	}

	c := newTestClassifier(nil)
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := c.Classify(context.Background(), tt.text, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestGatewayUnavailableFallsBack(t *testing.T) {
	stub := &stubCompleter{err: model.ErrUnavailable}
	got := newTestClassifier(stub).Classify(context.Background(), "crawl the docs", nil)
	assert.Equal(t, CategoryKnowledgeManagement, got.Category)
}

func TestModelRequestShape(t *testing.T) {
	stub := &stubCompleter{text: `{"category":"general","confidence":0.9,"complexity":0.1}`}
	recent := []prompt.Turn{{Input: "a"}, {Input: "b"}, {Input: "c"}, {Input: "d"}}

	newTestClassifier(stub).Classify(context.Background(), "hi there", recent)

	require.Len(t, stub.reqs, 1)
	req := stub.reqs[0]
	assert.Equal(t, 0.3, req.Complexity)
	assert.Equal(t, 500, req.MaxTokens)
	assert.Empty(t, req.System)
	assert.False(t, req.PromptCaching)
	assert.Contains(t, req.Prompt, `"hi there"`)
	assert.Contains(t, req.Prompt, `"d"`)
	assert.NotContains(t, req.Prompt, `"a"`)
}

func TestModelOutputs(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   Intent
	}{
		{
			name:   "plain json",
			output: `{"category":"agent_task","detail":"design","confidence":0.9,"complexity":0.85,"suggested_specialists":["vilya","narya"],"requires_knowledge":true}`,
			want:   Intent{Category: CategoryAgentTask, Detail: "design", Confidence: 0.9, Complexity: 0.85, SuggestedSpecialists: []string{"vilya", "narya"}, RequiresKnowledge: true},
		},
		{
			name:   "json fence",
			output: "Here you go:\n```json\n{\"category\":\"information\",\"confidence\":0.8,\"complexity\":0.4}\n```\nanything else?",
			want:   Intent{Category: CategoryInformation, Confidence: 0.8, Complexity: 0.4, SuggestedSpecialists: []string{}},
		},
		{
			name:   "bare fence",
			output: "```\n{\"category\":\"general\",\"confidence\":0.6,\"complexity\":0.1}\n```",
			want:   Intent{Category: CategoryGeneral, Confidence: 0.6, Complexity: 0.1, SuggestedSpecialists: []string{}},
		},
		{
			name:   "uppercase fence tag",
			output: "```JSON\n{\"category\":\"information\",\"confidence\":0.9,\"complexity\":0.4}\n```",
			want:   Intent{Category: CategoryInformation, Confidence: 0.9, Complexity: 0.4, SuggestedSpecialists: []string{}},
		},
		{
			name:   "non-json fence tag",
			output: "Sure.\n```javascript\n{\"category\":\"information\",\"confidence\":0.9,\"complexity\":0.4}\n```",
			want:   Intent{Category: CategoryInformation, Confidence: 0.9, Complexity: 0.4, SuggestedSpecialists: []string{}},
		},
		{
			name:   "legacy keys",
			output: `{"type":"agent_task","details":"arch","confidence":0.75,"complexity":0.9,"suggested_agents":["Nenya"],"requires_knowledge":false}`,
			want:   Intent{Category: CategoryAgentTask, Detail: "arch", Confidence: 0.75, Complexity: 0.9, SuggestedSpecialists: []string{"nenya"}},
		},
		{
			name:   "out of range values are clamped",
			output: `{"category":"general","confidence":1.7,"complexity":-0.2}`,
			want:   Intent{Category: CategoryGeneral, Confidence: 1, Complexity: 0, SuggestedSpecialists: []string{}},
		},
		{
			name:   "trailing comma is repaired",
			output: `{"category":"information","confidence":0.8,"complexity":0.5,}`,
			want:   Intent{Category: CategoryInformation, Confidence: 0.8, Complexity: 0.5, SuggestedSpecialists: []string{}},
		},
		{
			name:   "unknown specialist ids are kept",
			output: `{"category":"agent_task","confidence":0.8,"complexity":0.9,"suggested_specialists":["gandalf"]}`,
			want:   Intent{Category: CategoryAgentTask, Confidence: 0.8, Complexity: 0.9, SuggestedSpecialists: []string{"gandalf"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestClassifier(&stubCompleter{text: tt.output}).Classify(context.Background(), "hello", nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnusableOutputFallsBackToRules(t *testing.T) {
	outputs := []string{
		"",
		"I think this is a greeting.",
		`{"category":"system_control","confidence":0.9,"complexity":0.2}`,
		`{"category":"general","confidence":0.9}`,
		`{"confidence":0.9,"complexity":0.2}`,
		`{"category":"general","confidence":"high","complexity":0.2}`,
		`["general"]`,
	}

	for _, out := range outputs {
		got := newTestClassifier(&stubCompleter{text: out}).Classify(context.Background(), "crawl the docs", nil)
		assert.Equal(t, CategoryKnowledgeManagement, got.Category, "output %q", out)
		assert.Equal(t, 0.8, got.Confidence)
	}
}

func TestCustomPatternsWithoutCatchAll(t *testing.T) {
	c := newTestClassifier(nil)
	c.SetPatterns([]*IntentPattern{{ID: "only", Category: CategoryInformation, Keywords: []string{"zzz"}, Confidence: 0.9}})

	assert.Equal(t, CategoryInformation, c.Fallback("zzz").Category)
	assert.Equal(t, CategoryGeneral, c.Fallback("hello").Category)
}

func TestCustomBuckets(t *testing.T) {
	c := newTestClassifier(nil)
	c.SetBuckets([]SpecialistBucket{{Specialist: "elrond", Keywords: []string{"council"}}})

	assert.Equal(t, []string{"elrond"}, c.Fallback("create a council plan").SuggestedSpecialists)
	assert.Equal(t, []string{DefaultSpecialist}, c.Fallback("create a thing").SuggestedSpecialists)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("  {\"a\":1}  "))
	assert.Equal(t, `{"a":1}`, stripFences("```{\"a\":1}"))
	assert.Equal(t, `{"a":1}`, stripFences("```JSON\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```json5\n{\"a\":1}\n```"))
	assert.Equal(t, `[1, 2]`, stripFences("```\n[1, 2]\n```"))
}
