// Package agent provides the JARVIS orchestrator.
//
// Each command is classified, routed to one of four handlers and recorded
// in the conversation history:
//   - information: knowledge base search
//   - agent_task: delegation to specialist agents
//   - knowledge_management: dashboard guidance
//   - general: canned conversational replies
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/flynn-ai/jarvis/internal/classifier"
	"github.com/flynn-ai/jarvis/internal/cost"
	"github.com/flynn-ai/jarvis/internal/errors"
	"github.com/flynn-ai/jarvis/internal/knowledge"
	"github.com/flynn-ai/jarvis/internal/model"
	"github.com/flynn-ai/jarvis/internal/personality"
	"github.com/flynn-ai/jarvis/internal/prompt"
	"github.com/flynn-ai/jarvis/internal/stats"
	"github.com/flynn-ai/jarvis/internal/subagent"
)

// DefaultDashboardURL is the knowledge dashboard named in guidance replies.
const DefaultDashboardURL = "http://localhost:3737"

// Gateway is the model gateway as seen by the orchestrator.
type Gateway interface {
	Completer
	Stats() cost.Stats
	Available() bool
	Status() *model.ModelStatus
}

// IntentClassifier classifies commands. It must never fail.
type IntentClassifier interface {
	Classify(ctx context.Context, text string, recent []prompt.Turn) classifier.Intent
}

// Config configures the orchestrator. Only Gateway is required.
type Config struct {
	User         string
	Gateway      Gateway
	Classifier   IntentClassifier
	Registry     *subagent.Registry
	Knowledge    knowledge.Searcher
	Personality  *personality.Personality
	Prompt       *prompt.Builder
	DashboardURL string
	Logger       zerolog.Logger
}

// Orchestrator processes commands. It owns its history, registry and
// request statistics; usage counters and the response cache live in the
// gateway it is given.
type Orchestrator struct {
	gateway     Gateway
	classifier  IntentClassifier
	registry    *subagent.Registry
	search      knowledge.Searcher
	persona     *personality.Personality
	prompt      *prompt.Builder
	coordinator *Coordinator
	history     *History
	stats       *stats.Collector
	dashboard   string
	log         zerolog.Logger
}

// NewOrchestrator creates an orchestrator, filling unset collaborators with
// defaults.
func NewOrchestrator(cfg *Config) *Orchestrator {
	o := &Orchestrator{
		gateway:    cfg.Gateway,
		classifier: cfg.Classifier,
		registry:   cfg.Registry,
		search:     cfg.Knowledge,
		persona:    cfg.Personality,
		prompt:     cfg.Prompt,
		history:    NewHistory(),
		stats:      stats.NewCollector(),
		dashboard:  cfg.DashboardURL,
		log:        cfg.Logger.With().Str("component", "orchestrator").Logger(),
	}
	if o.persona == nil {
		o.persona = personality.New(cfg.User, nil)
	}
	if o.prompt == nil {
		o.prompt = prompt.NewBuilder(o.persona.User())
	}
	if o.registry == nil {
		o.registry = subagent.NewDefaultRegistry(nil)
	}
	if o.search == nil {
		o.search = knowledge.Noop{}
	}
	if o.dashboard == "" {
		o.dashboard = DefaultDashboardURL
	}
	if o.classifier == nil {
		o.classifier = classifier.NewClassifier(&classifier.Config{
			Model:  o.gateway,
			Prompt: o.prompt,
			Logger: cfg.Logger,
		})
	}
	o.coordinator = NewCoordinator(&CoordinatorConfig{
		Registry:    o.registry,
		Model:       o.gateway,
		Knowledge:   o.search,
		Personality: o.persona,
		Prompt:      o.prompt,
		Logger:      cfg.Logger,
	})
	return o
}

// Process handles one command. It never panics and never returns an
// error; failures are reported in the Result.
func (o *Orchestrator) Process(ctx context.Context, text string, cmdCtx map[string]any) *Result {
	return o.process(ctx, text, cmdCtx, nil)
}

// ProcessStream is Process with progress callbacks. Callbacks are
// serialized and complete before ProcessStream returns.
func (o *Orchestrator) ProcessStream(ctx context.Context, text string, cmdCtx map[string]any, cb StreamCallback) *Result {
	return o.process(ctx, text, cmdCtx, newStreamWriter(cb))
}

func (o *Orchestrator) process(ctx context.Context, text string, cmdCtx map[string]any, stream *streamWriter) (res *Result) {
	start := time.Now()
	o.log.Info().Str("text", text).Msg("processing command")

	recent := o.history.Turns(o.prompt.HistoryTurns)
	id := o.history.Append(text, cmdCtx)

	var intent classifier.Intent
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Interface("panic", r).Msg("command handler panicked")
			res = o.failure(id, intent, fmt.Errorf("internal error: %v", r))
		}
		o.stats.RecordRequest(time.Since(start))
		if !res.Success {
			o.stats.RecordError()
		}
	}()

	intent = o.classifier.Classify(ctx, text, recent)
	o.history.SetIntent(id, intent)
	o.log.Info().
		Str("intent", string(intent.Category)).
		Float64("confidence", intent.Confidence).
		Float64("complexity", intent.Complexity).
		Msg("intent classified")
	stream.emit(StreamChunk{Stage: StageClassified, Text: string(intent.Category)})

	outcome, err := o.dispatch(ctx, text, intent, stream)
	if err != nil {
		o.log.Error().Err(err).Str("intent", string(intent.Category)).Msg("error processing command")
		return o.failure(id, intent, err)
	}

	o.history.Complete(id, outcome.Reply(), "")
	return &Result{
		Success:   true,
		Response:  outcome.Reply(),
		Intent:    intent,
		Outcome:   outcome,
		Usage:     o.usage(),
		Timestamp: time.Now(),
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, text string, intent classifier.Intent, stream *streamWriter) (Outcome, error) {
	switch intent.Category {
	case classifier.CategoryInformation:
		return o.handleInformation(ctx, text)
	case classifier.CategoryAgentTask:
		return o.coordinator.delegate(ctx, DelegateRequest{Task: text, Intent: intent}, stream), nil
	case classifier.CategoryKnowledgeManagement:
		return o.handleKnowledgeManagement(), nil
	default:
		return o.handleGeneral(text), nil
	}
}

func (o *Orchestrator) failure(id string, intent classifier.Intent, err error) *Result {
	detail := failureDetail(err)
	response := o.persona.Error() + " " + detail
	o.history.Complete(id, response, detail)
	return &Result{
		Success:   false,
		Response:  response,
		Intent:    intent,
		Usage:     o.usage(),
		Timestamp: time.Now(),
		Error:     detail,
	}
}

func (o *Orchestrator) usage() cost.Stats {
	if o.gateway == nil {
		return cost.Stats{}
	}
	return o.gateway.Stats()
}

// Usage returns completion usage counters and estimated cost.
func (o *Orchestrator) Usage() cost.Stats {
	return o.usage()
}

// History returns copies of the last limit records.
func (o *Orchestrator) History(limit int) []ConversationRecord {
	return o.history.Recent(limit)
}

// HistoryLen returns the total number of records.
func (o *Orchestrator) HistoryLen() int {
	return o.history.Len()
}

// Registry returns the specialist registry.
func (o *Orchestrator) Registry() *subagent.Registry {
	return o.registry
}

// User returns how the user is addressed.
func (o *Orchestrator) User() string {
	return o.persona.User()
}

// Status returns the orchestrator status.
func (o *Orchestrator) Status() *Status {
	s := &Status{
		User:               o.persona.User(),
		Rings:              o.registry.List(),
		ConversationLength: o.history.Len(),
		KnowledgeEndpoint:  knowledge.EndpointOf(o.search),
		Requests:           o.stats.Collect(),
	}
	if o.gateway != nil {
		s.ModelAvailable = o.gateway.Available()
		if ms := o.gateway.Status(); ms != nil {
			s.Breaker = ms.Breaker
		}
	}
	return s
}

// Delegate exposes the coordinator for callers that already have an intent.
func (o *Orchestrator) Delegate(ctx context.Context, req DelegateRequest) *DelegationOutcome {
	return o.coordinator.Delegate(ctx, req)
}

// knowledgeError marks a knowledge search transport failure.
func knowledgeError(err error) error {
	return errors.Wrap(err, errors.CodeKnowledgeQuery, "Unable to query knowledge base.", errors.CategoryTemporary)
}

// failureDetail is the user-facing part of a handler error: the outermost
// AppError message, or the error text.
func failureDetail(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
