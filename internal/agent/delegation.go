package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/flynn-ai/jarvis/internal/classifier"
	"github.com/flynn-ai/jarvis/internal/knowledge"
	"github.com/flynn-ai/jarvis/internal/model"
	"github.com/flynn-ai/jarvis/internal/personality"
	"github.com/flynn-ai/jarvis/internal/prompt"
	"github.com/flynn-ai/jarvis/internal/subagent"
)

// Specialist calls run on the advanced tier with room for long answers.
const (
	specialistComplexity = 0.9
	specialistMaxTokens  = 4000
	delegationKnowledge  = 3
)

// Completer is the subset of the model gateway used for specialist calls.
type Completer interface {
	Complete(ctx context.Context, req *model.CompletionRequest) (string, error)
}

// DelegateRequest is a task handed to the specialists. Knowledge, when set,
// is used instead of searching.
type DelegateRequest struct {
	Task      string
	Intent    classifier.Intent
	Knowledge *knowledge.SearchResult
}

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	Registry    *subagent.Registry
	Model       Completer
	Knowledge   knowledge.Searcher
	Personality *personality.Personality
	Prompt      *prompt.Builder
	Logger      zerolog.Logger
}

// Coordinator runs delegated tasks across one or more specialists.
type Coordinator struct {
	registry *subagent.Registry
	model    Completer
	search   knowledge.Searcher
	persona  *personality.Personality
	prompt   *prompt.Builder
	log      zerolog.Logger
}

// NewCoordinator creates a delegation coordinator.
func NewCoordinator(cfg *CoordinatorConfig) *Coordinator {
	c := &Coordinator{
		registry: cfg.Registry,
		model:    cfg.Model,
		search:   cfg.Knowledge,
		persona:  cfg.Personality,
		prompt:   cfg.Prompt,
		log:      cfg.Logger.With().Str("component", "delegation").Logger(),
	}
	if c.registry == nil {
		c.registry = subagent.NewDefaultRegistry(nil)
	}
	if c.search == nil {
		c.search = knowledge.Noop{}
	}
	if c.persona == nil {
		c.persona = personality.New("", nil)
	}
	if c.prompt == nil {
		c.prompt = prompt.NewBuilder(c.persona.User())
	}
	return c
}

// Delegate engages the suggested specialists and assembles their analyses.
// It always produces a response.
func (c *Coordinator) Delegate(ctx context.Context, req DelegateRequest) *DelegationOutcome {
	return c.delegate(ctx, req, nil)
}

func (c *Coordinator) delegate(ctx context.Context, req DelegateRequest, stream *streamWriter) *DelegationOutcome {
	specialists := c.resolve(req.Intent.SuggestedSpecialists)
	c.log.Info().Strs("specialists", ids(specialists)).Msg("delegating task")

	ack := c.persona.Acknowledge()
	forge := c.forgePhrase(specialists)
	stream.emit(StreamChunk{Stage: StageWorking, Text: ack + "\n" + forge})

	kb := req.Knowledge
	if kb == nil && req.Intent.RequiresKnowledge {
		res, err := c.search.Search(ctx, req.Task, delegationKnowledge)
		if err != nil {
			c.log.Warn().Err(err).Msg("could not query knowledge base")
		} else {
			kb = res
		}
	}
	excerpts := excerptsFrom(kb)

	analyses := c.forgeAll(ctx, specialists, req.Task, excerpts, stream)

	parts := []string{ack, forge}
	for _, a := range analyses {
		parts = append(parts, fmt.Sprintf("\n\n**%s (%s) Analysis:**\n%s", a.Name, a.Role, a.Text))
	}
	parts = append(parts, fmt.Sprintf("\n\n%s Would you like me to proceed with implementation, %s?", c.persona.Complete(), c.persona.User()))

	return &DelegationOutcome{
		Task:          req.Task,
		Analyses:      analyses,
		KnowledgeUsed: len(excerpts) > 0,
		Text:          strings.Join(parts, "\n"),
	}
}

// resolve maps suggested ids to specialists, defaulting to vilya.
func (c *Coordinator) resolve(suggested []string) []subagent.Specialist {
	specialists := c.registry.Resolve(suggested)
	if len(specialists) == 0 {
		if s, ok := c.registry.Get(classifier.DefaultSpecialist); ok {
			specialists = []subagent.Specialist{s}
		}
	}
	return specialists
}

func (c *Coordinator) forgePhrase(specialists []subagent.Specialist) string {
	if len(specialists) == 1 {
		return c.persona.AgentForging(specialists[0].Name)
	}
	names := make([]string, len(specialists))
	for i, s := range specialists {
		names[i] = s.Name
	}
	return c.persona.Format(fmt.Sprintf("I'll engage %s for this task, {user}.", strings.Join(names, ", ")))
}

// forgeAll runs every specialist and returns their analyses in input order.
// A single specialist runs inline; several run concurrently and are joined
// here. Branches never fail, so siblings are never cancelled.
func (c *Coordinator) forgeAll(ctx context.Context, specialists []subagent.Specialist, task string, excerpts []prompt.Excerpt, stream *streamWriter) []Analysis {
	analyses := make([]Analysis, len(specialists))
	if len(specialists) == 1 {
		analyses[0] = c.forge(ctx, specialists[0], task, excerpts)
		stream.emit(analysisChunk(analyses[0]))
		return analyses
	}

	c.log.Info().Int("count", len(specialists)).Msg("forging specialists in parallel")
	var g errgroup.Group
	for i, s := range specialists {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error().Interface("panic", r).Str("specialist", s.ID).Msg("specialist panicked")
					analyses[i] = simulated(s, task)
				}
			}()
			analyses[i] = c.forge(ctx, s, task, excerpts)
			stream.emit(analysisChunk(analyses[i]))
			return nil
		})
	}
	_ = g.Wait()
	return analyses
}

// forge produces one specialist's analysis, falling back to a simulated
// answer when the skill is missing or the model call fails.
func (c *Coordinator) forge(ctx context.Context, s subagent.Specialist, task string, excerpts []prompt.Excerpt) Analysis {
	skill, err := c.registry.LoadPrompt(ctx, s.ID)
	if err != nil {
		c.log.Warn().Err(err).Str("specialist", s.ID).Msg("could not load skill, falling back to simulation")
		return simulated(s, task)
	}
	if c.model == nil {
		return simulated(s, task)
	}

	text, err := c.model.Complete(ctx, &model.CompletionRequest{
		Prompt:        c.prompt.Specialist(task, s.Role, excerpts),
		System:        skill,
		Complexity:    specialistComplexity,
		MaxTokens:     specialistMaxTokens,
		PromptCaching: true,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		c.log.Warn().Err(err).Str("specialist", s.ID).Msg("specialist call failed, falling back to simulation")
		return simulated(s, task)
	}

	c.log.Info().Str("specialist", s.ID).Int("chars", len(text)).Msg("analysis complete")
	return Analysis{SpecialistID: s.ID, Name: s.Name, Role: s.Role, Text: text}
}

func simulated(s subagent.Specialist, task string) Analysis {
	return Analysis{
		SpecialistID: s.ID,
		Name:         s.Name,
		Role:         s.Role,
		Simulated:    true,
		Text: fmt.Sprintf("Based on my analysis, I would recommend consulting with the %s specialist for detailed guidance on: %s. This agent specializes in %s.",
			s.Role, task, strings.Join(s.Capabilities, ", ")),
	}
}

func analysisChunk(a Analysis) StreamChunk {
	return StreamChunk{Stage: StageAnalysis, Specialist: a.SpecialistID, Text: a.Text}
}

func excerptsFrom(res *knowledge.SearchResult) []prompt.Excerpt {
	if res == nil {
		return nil
	}
	out := make([]prompt.Excerpt, 0, len(res.Results))
	for _, r := range res.Results {
		content := r.Content
		if content == "" {
			content = r.Preview
		}
		out = append(out, prompt.Excerpt{Title: r.Title, Content: content})
	}
	return out
}

func ids(specialists []subagent.Specialist) []string {
	out := make([]string, len(specialists))
	for i, s := range specialists {
		out[i] = s.ID
	}
	return out
}
