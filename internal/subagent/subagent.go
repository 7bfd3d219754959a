package subagent

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/flynn-ai/jarvis/internal/errors"
)

// Registry holds the specialists known at startup. It is populated before
// serving and read-only afterwards.
type Registry struct {
	order       []string
	specialists map[string]Specialist
	store       ContentStore
}

// NewRegistry creates an empty registry backed by store.
func NewRegistry(store ContentStore) *Registry {
	return &Registry{
		specialists: make(map[string]Specialist),
		store:       store,
	}
}

// NewDefaultRegistry creates a registry with the built-in specialists.
func NewDefaultRegistry(store ContentStore) *Registry {
	r := NewRegistry(store)
	for _, s := range DefaultSpecialists() {
		_ = r.Register(s)
	}
	return r
}

// Register adds a specialist. Ids are case-insensitive and unique.
func (r *Registry) Register(s Specialist) error {
	s.ID = strings.ToLower(strings.TrimSpace(s.ID))
	if s.ID == "" {
		return errors.New(errors.CodeInvalidInput, "specialist id is required", errors.CategoryUser)
	}
	if _, exists := r.specialists[s.ID]; exists {
		return errors.NewBuilder(errors.CodeInvalidInput, "duplicate specialist id").
			User().
			WithContext("id", s.ID).
			Build()
	}
	if s.Name == "" {
		s.Name = strings.ToUpper(s.ID[:1]) + s.ID[1:]
	}
	r.specialists[s.ID] = s
	r.order = append(r.order, s.ID)
	return nil
}

// Get retrieves a specialist by id.
func (r *Registry) Get(id string) (Specialist, bool) {
	s, ok := r.specialists[strings.ToLower(strings.TrimSpace(id))]
	return s, ok
}

// List returns all specialist ids in registration order.
func (r *Registry) List() []string {
	return append([]string(nil), r.order...)
}

// All returns all specialists in registration order.
func (r *Registry) All() []Specialist {
	out := make([]Specialist, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.specialists[id])
	}
	return out
}

// Resolve maps ids to specialists, dropping unknown and repeated ids while
// keeping the given order.
func (r *Registry) Resolve(ids []string) []Specialist {
	seen := make(map[string]bool, len(ids))
	out := make([]Specialist, 0, len(ids))
	for _, id := range ids {
		s, ok := r.Get(id)
		if !ok || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

// LoadPrompt returns the specialist's skill text, or an error wrapping
// ErrNotFound when none exists.
func (r *Registry) LoadPrompt(ctx context.Context, id string) (string, error) {
	s, ok := r.Get(id)
	if !ok {
		return "", fmt.Errorf("specialist %q: %w", id, ErrNotFound)
	}
	if r.store == nil {
		return "", fmt.Errorf("specialist %q: no content store: %w", s.ID, ErrNotFound)
	}
	return r.store.Load(ctx, s)
}

// registryFile is the YAML layout for extra specialists.
type registryFile struct {
	Specialists []Specialist `yaml:"specialists"`
}

// LoadFile reads extra specialists from a YAML file.
func LoadFile(path string) ([]Specialist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigNotFound, "failed to read registry file", errors.CategorySystem)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.NewBuilder(errors.CodeConfigInvalid, "failed to parse registry file").
			User().
			Wrap(err).
			WithContext("path", path).
			Build()
	}
	return file.Specialists, nil
}

// RegisterFile registers every specialist in a YAML file.
func (r *Registry) RegisterFile(path string) error {
	specs, err := LoadFile(path)
	if err != nil {
		return err
	}
	for _, s := range specs {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}
