package commands

import (
	stderrors "errors"

	"github.com/rs/zerolog"

	"github.com/flynn-ai/jarvis/internal/agent"
	"github.com/flynn-ai/jarvis/internal/cache"
	"github.com/flynn-ai/jarvis/internal/config"
	"github.com/flynn-ai/jarvis/internal/cost"
	"github.com/flynn-ai/jarvis/internal/knowledge"
	"github.com/flynn-ai/jarvis/internal/model"
	"github.com/flynn-ai/jarvis/internal/subagent"
)

// app holds the collaborators built from one configuration.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	orch    *agent.Orchestrator
	closers []func() error
}

func newApp(cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	search, err := a.openKnowledge()
	if err != nil {
		return nil, err
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	var provider model.Model
	if cfg.Models.APIKey != "" {
		provider = model.NewAnthropicClient(&model.AnthropicConfig{
			APIKey:  cfg.Models.APIKey,
			BaseURL: cfg.Models.BaseURL,
			Timeout: cfg.ModelTimeout(),
		})
	} else {
		log.Warn().Msg("no ANTHROPIC_API_KEY configured, using rule-based classification and simulated analyses")
	}

	gateway := model.NewGateway(&model.GatewayConfig{
		Provider:      provider,
		Cache:         cache.New(&cache.Config{Enabled: cfg.Cache.Enabled, TTL: cfg.CacheTTL()}),
		Tracker:       cost.NewTracker(),
		FastModel:     cfg.Models.FastModel,
		AdvancedModel: cfg.Models.AdvancedModel,
		Threshold:     cfg.Models.ComplexityThreshold,
		Timeout:       cfg.ModelTimeout(),
		Logger:        log,
	})

	a.orch = agent.NewOrchestrator(&agent.Config{
		User:         cfg.User.Name,
		Gateway:      gateway,
		Registry:     registry,
		Knowledge:    search,
		DashboardURL: cfg.Knowledge.DashboardURL,
		Logger:       log,
	})
	return a, nil
}

// openKnowledge builds the configured search backend.
func (a *app) openKnowledge() (knowledge.Searcher, error) {
	kc := a.cfg.Knowledge
	switch config.KnowledgeProvider(kc.Provider) {
	case config.KnowledgeArchon:
		return knowledge.NewArchon(knowledge.ArchonConfig{
			URL:     kc.MCPURL,
			Tool:    kc.SearchTool,
			Timeout: a.cfg.KnowledgeTimeout(),
			Logger:  a.log,
		}), nil
	case config.KnowledgeSQLite:
		ix, err := knowledge.OpenIndex(kc.DatabasePath, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ix.Close)
		return ix, nil
	default:
		return knowledge.Noop{}, nil
	}
}

func (a *app) close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return stderrors.Join(errs...)
}

// newRegistry loads the built-in rings plus the optional registry file,
// reading skills from the configured directories.
func newRegistry(cfg *config.Config) (*subagent.Registry, error) {
	registry := subagent.NewDefaultRegistry(subagent.NewFileStore(cfg.Agents.SkillsDir, cfg.Agents.LegacyDir))
	if cfg.Agents.RegistryFile != "" {
		if err := registry.RegisterFile(cfg.Agents.RegistryFile); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
