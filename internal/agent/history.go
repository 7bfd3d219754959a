package agent

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flynn-ai/jarvis/internal/classifier"
	"github.com/flynn-ai/jarvis/internal/prompt"
)

// ConversationRecord is one processed command. Intent is nil until the
// command has been classified.
type ConversationRecord struct {
	ID        string
	Timestamp time.Time
	Input     string
	Context   map[string]any
	Intent    *classifier.Intent
	Response  string
	Error     string
}

// History is the in-memory conversation transcript. Records are only
// appended and annotated, never removed.
type History struct {
	mu      sync.RWMutex
	records []ConversationRecord
	index   map[string]int
	now     func() time.Time
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{index: make(map[string]int), now: time.Now}
}

// Append records a new command and returns its id.
func (h *History) Append(input string, ctx map[string]any) string {
	rec := ConversationRecord{
		ID:        uuid.New().String(),
		Timestamp: h.now(),
		Input:     input,
		Context:   maps.Clone(ctx),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.index[rec.ID] = len(h.records)
	h.records = append(h.records, rec)
	return rec.ID
}

// update applies fn to the record with the given id.
func (h *History) update(id string, fn func(*ConversationRecord)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i, ok := h.index[id]; ok {
		fn(&h.records[i])
	}
}

// SetIntent stores the classification of a record.
func (h *History) SetIntent(id string, intent classifier.Intent) {
	h.update(id, func(r *ConversationRecord) { r.Intent = &intent })
}

// Complete stores the response and error of a record.
func (h *History) Complete(id, response, errMsg string) {
	h.update(id, func(r *ConversationRecord) {
		r.Response = response
		r.Error = errMsg
	})
}

// Len returns the number of records.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// Recent returns copies of the last n records, oldest first.
// n <= 0 returns every record.
func (h *History) Recent(n int) []ConversationRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	start := 0
	if n > 0 && len(h.records) > n {
		start = len(h.records) - n
	}
	out := make([]ConversationRecord, 0, len(h.records)-start)
	for _, r := range h.records[start:] {
		r.Context = maps.Clone(r.Context)
		if r.Intent != nil {
			in := *r.Intent
			in.SuggestedSpecialists = append([]string(nil), in.SuggestedSpecialists...)
			r.Intent = &in
		}
		out = append(out, r)
	}
	return out
}

// Turns returns the last n records as classifier context.
func (h *History) Turns(n int) []prompt.Turn {
	recent := h.Recent(n)
	turns := make([]prompt.Turn, len(recent))
	for i, r := range recent {
		turns[i] = prompt.Turn{Input: r.Input}
		if r.Intent != nil {
			turns[i].Category = string(r.Intent.Category)
		}
	}
	return turns
}
