package agent

import (
	"time"

	"github.com/flynn-ai/jarvis/internal/classifier"
	"github.com/flynn-ai/jarvis/internal/cost"
	"github.com/flynn-ai/jarvis/internal/knowledge"
	"github.com/flynn-ai/jarvis/internal/stats"
)

// Outcome is what a handler produced. The concrete types are
// InformationOutcome, DelegationOutcome, KnowledgeOutcome and GeneralOutcome.
type Outcome interface {
	Category() classifier.Category
	Reply() string
}

// InformationOutcome is a knowledge base answer.
type InformationOutcome struct {
	Query   string
	Results []knowledge.Result // top results shown to the user
	Total   int                // matches returned by the search
	Text    string
}

func (o *InformationOutcome) Category() classifier.Category { return classifier.CategoryInformation }
func (o *InformationOutcome) Reply() string                 { return o.Text }

// Analysis is one specialist's contribution to a delegation.
type Analysis struct {
	SpecialistID string
	Name         string
	Role         string
	Text         string
	Simulated    bool // no skill content or the model call failed
}

// DelegationOutcome is the assembled specialist response.
type DelegationOutcome struct {
	Task          string
	Analyses      []Analysis // in selection order
	KnowledgeUsed bool
	Text          string
}

func (o *DelegationOutcome) Category() classifier.Category { return classifier.CategoryAgentTask }
func (o *DelegationOutcome) Reply() string                 { return o.Text }

// Specialists returns the ids of the engaged specialists in order.
func (o *DelegationOutcome) Specialists() []string {
	ids := make([]string, len(o.Analyses))
	for i, a := range o.Analyses {
		ids[i] = a.SpecialistID
	}
	return ids
}

// KnowledgeOutcome points the user at the knowledge dashboard.
type KnowledgeOutcome struct {
	DashboardURL string
	Text         string
}

func (o *KnowledgeOutcome) Category() classifier.Category {
	return classifier.CategoryKnowledgeManagement
}
func (o *KnowledgeOutcome) Reply() string { return o.Text }

// GeneralKind distinguishes canned conversational replies.
type GeneralKind string

const (
	GeneralGreeting GeneralKind = "greeting"
	GeneralStatus   GeneralKind = "status"
	GeneralReady    GeneralKind = "ready"
)

// GeneralOutcome is a canned conversational reply.
type GeneralOutcome struct {
	Kind GeneralKind
	Text string
}

func (o *GeneralOutcome) Category() classifier.Category { return classifier.CategoryGeneral }
func (o *GeneralOutcome) Reply() string                 { return o.Text }

// Result is the outcome of processing one command. Outcome is nil when
// Success is false.
type Result struct {
	Success   bool
	Response  string
	Intent    classifier.Intent
	Outcome   Outcome
	Usage     cost.Stats
	Timestamp time.Time
	Error     string
}

// Status describes the orchestrator for the status endpoint.
type Status struct {
	User               string
	Rings              []string
	ConversationLength int
	KnowledgeEndpoint  string
	ModelAvailable     bool
	Breaker            string
	Requests           *stats.Stats
}
