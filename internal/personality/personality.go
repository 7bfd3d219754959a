// Package personality renders JARVIS's canned phrases.
package personality

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// DefaultUser is how the user is addressed when no name is configured.
const DefaultUser = "Sir"

// Category names a phrase group.
type Category string

const (
	Greeting       Category = "greeting"
	Acknowledgment Category = "acknowledgment"
	Completion     Category = "completion"
	Error          Category = "error"
	Clarification  Category = "clarification"
	Working        Category = "working"
	AgentForging   Category = "agent_forging"
)

var phrases = map[Category][]string{
	Greeting: {
		"Good morning, {user}. All systems operational.",
		"Welcome back, {user}. Shall I brief you on recent developments?",
		"At your service, {user}.",
		"Good to see you, {user}. How may I assist?",
	},
	Acknowledgment: {
		"Understood, {user}.",
		"Right away, {user}.",
		"On it, {user}.",
		"Processing...",
		"Certainly, {user}.",
	},
	Completion: {
		"Task completed, {user}.",
		"Done, {user}.",
		"Complete. Shall I proceed with the next step?",
		"Finished, {user}. Ready for your next instruction.",
	},
	Error: {
		"I'm afraid I've encountered a difficulty, {user}.",
		"There appears to be an issue, {user}.",
		"My apologies, {user}. Something's gone wrong.",
		"I seem to be having trouble with that, {user}.",
	},
	Clarification: {
		"Could you elaborate, {user}?",
		"I'm not quite sure I follow, {user}.",
		"Perhaps you could rephrase that, {user}?",
		"I need a bit more information to proceed, {user}.",
	},
	Working: {
		"Working on it, {user}.",
		"Give me just a moment, {user}.",
		"Analyzing now, {user}.",
		"Processing your request, {user}.",
	},
	AgentForging: {
		"Engaging {agent}, {user}.",
		"I'll consult {agent} for this, {user}.",
		"Bringing {agent} online now, {user}.",
		"Deploying {agent} to assist, {user}.",
	},
}

// Phrases returns the templates of a category.
func Phrases(c Category) []string {
	return append([]string(nil), phrases[c]...)
}

// Source picks an index in [0, n).
type Source interface {
	IntN(n int) int
}

// Personality picks phrases for one user. Safe for concurrent use.
type Personality struct {
	user string

	mu  sync.Mutex
	src Source
}

// New creates a Personality addressing user. A nil src uses math/rand/v2.
func New(user string, src Source) *Personality {
	if strings.TrimSpace(user) == "" {
		user = DefaultUser
	}
	return &Personality{user: user, src: src}
}

// User returns the form of address.
func (p *Personality) User() string {
	return p.user
}

func (p *Personality) pick(c Category) string {
	options := phrases[c]
	if len(options) == 0 {
		return ""
	}
	if p.src == nil {
		return options[rand.IntN(len(options))]
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return options[p.src.IntN(len(options))]
}

// Say renders a random phrase of category c.
func (p *Personality) Say(c Category) string {
	return p.Format(p.pick(c))
}

func (p *Personality) Greet() string       { return p.Say(Greeting) }
func (p *Personality) Acknowledge() string { return p.Say(Acknowledgment) }
func (p *Personality) Complete() string    { return p.Say(Completion) }
func (p *Personality) Error() string       { return p.Say(Error) }
func (p *Personality) Clarify() string     { return p.Say(Clarification) }
func (p *Personality) Working() string     { return p.Say(Working) }

// AgentForging announces that a specialist is being engaged.
func (p *Personality) AgentForging(agent string) string {
	return strings.ReplaceAll(p.Say(AgentForging), "{agent}", agent)
}

// Format substitutes {user} in template.
func (p *Personality) Format(template string) string {
	return strings.ReplaceAll(template, "{user}", p.user)
}
