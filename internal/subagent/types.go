// Package subagent provides the specialist ("ring") registry and the store
// holding each specialist's skill prompt.
package subagent

// Specialist is a named expert persona the coordinator can engage.
type Specialist struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Role         string   `yaml:"role" json:"role"`
	PromptRef    string   `yaml:"prompt_ref" json:"prompt_ref"`
	Capabilities []string `yaml:"capabilities" json:"capabilities"`

	// Triggers document what the specialist is for. Routing comes from the
	// classifier, not from these.
	Triggers []string `yaml:"triggers" json:"triggers"`
}

// DefaultSpecialists returns the three built-in rings.
func DefaultSpecialists() []Specialist {
	return []Specialist{
		{
			ID:           "nenya",
			Name:         "Nenya",
			Role:         "Product Manager",
			PromptRef:    "nenya-pm",
			Capabilities: []string{"requirements analysis", "stakeholder mapping", "user stories"},
			Triggers:     []string{"requirements", "stakeholders", "user stories", "prioritization"},
		},
		{
			ID:           "vilya",
			Name:         "Vilya",
			Role:         "System Architect",
			PromptRef:    "vilya-architect",
			Capabilities: []string{"system design", "architecture patterns", "tech stack decisions"},
			Triggers:     []string{"architecture", "design", "tech stack", "patterns", "system"},
		},
		{
			ID:           "narya",
			Name:         "Narya",
			Role:         "Research Analyst",
			PromptRef:    "narya-analyst",
			Capabilities: []string{"research", "competitive analysis", "feasibility studies"},
			Triggers:     []string{"research", "analyze", "compare", "feasibility", "investigate"},
		},
	}
}
