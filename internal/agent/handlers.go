package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/flynn-ai/jarvis/internal/prompt"
)

const (
	informationLimit = 5
	informationShown = 3
	previewChars     = 150
)

var (
	greetingKeywords = []string{"hello", "hi", "hey", "good morning", "good afternoon"}
	statusKeywords   = []string{"status", "how are you", "systems"}
)

func (o *Orchestrator) handleInformation(ctx context.Context, text string) (Outcome, error) {
	res, err := o.search.Search(ctx, text, informationLimit)
	if err != nil {
		return nil, knowledgeError(err)
	}

	out := &InformationOutcome{Query: text}
	if res == nil || !res.Success || len(res.Results) == 0 {
		if res != nil && res.Error != "" {
			o.log.Warn().Str("detail", res.Error).Msg("knowledge search reported failure")
		}
		out.Text = o.persona.Format("I couldn't find relevant information in the knowledge base for that query, {user}. Perhaps we should add more documentation?")
		return out, nil
	}

	out.Total = len(res.Results)
	shown := res.Results
	if len(shown) > informationShown {
		shown = shown[:informationShown]
	}
	out.Results = shown

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d relevant results in the knowledge base:\n\n", out.Total)
	for i, r := range shown {
		title := r.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "%d. %s\n   %s...\n\n", i+1, title, prompt.Truncate(r.Preview, previewChars))
	}
	b.WriteString("Shall I elaborate on any of these, {user}?")

	out.Text = o.persona.Format(b.String())
	return out, nil
}

func (o *Orchestrator) handleKnowledgeManagement() Outcome {
	return &KnowledgeOutcome{
		DashboardURL: o.dashboard,
		Text: o.persona.Format(fmt.Sprintf(
			"For knowledge base management, please use the Archon Dashboard at %s. You can crawl websites, upload documents, and manage sources there, {user}.",
			o.dashboard)),
	}
}

func (o *Orchestrator) handleGeneral(text string) Outcome {
	lower := strings.ToLower(text)

	if containsAny(lower, greetingKeywords) {
		return &GeneralOutcome{Kind: GeneralGreeting, Text: o.persona.Greet()}
	}

	if containsAny(lower, statusKeywords) {
		u := o.usage()
		msg := fmt.Sprintf("All systems operational, {user}. Ready to assist with your development work.\n\n"+
			"**System Stats:**\n"+
			"- API Calls: %d (%s%% fast tier)\n"+
			"- Cache Hits: %d\n"+
			"- Estimated Cost: $%.4f",
			u.TotalCalls, strconv.FormatFloat(u.FastPercentage, 'f', -1, 64), u.CacheHits, u.EstimatedCostUSD)
		return &GeneralOutcome{Kind: GeneralStatus, Text: o.persona.Format(msg)}
	}

	return &GeneralOutcome{
		Kind: GeneralReady,
		Text: o.persona.Format("I'm ready to assist, {user}. You can ask me to analyze systems, search the knowledge base, or coordinate specialist agents for complex tasks."),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
