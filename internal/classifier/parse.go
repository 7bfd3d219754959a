package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/flynn-ai/jarvis/internal/errors"
)

// rawIntent accepts both the current field names and the older
// type/details/suggested_agents spelling.
type rawIntent struct {
	Category             *string  `json:"category"`
	Type                 *string  `json:"type"`
	Detail               string   `json:"detail"`
	Details              string   `json:"details"`
	Confidence           *float64 `json:"confidence"`
	Complexity           *float64 `json:"complexity"`
	SuggestedSpecialists []string `json:"suggested_specialists"`
	SuggestedAgents      []string `json:"suggested_agents"`
	RequiresKnowledge    bool     `json:"requires_knowledge"`
}

// ParseIntent extracts an Intent from provider output. Code fences are
// stripped and syntax errors get one repair pass. Missing required fields
// or an unknown category are errors.
func ParseIntent(content string) (Intent, error) {
	payload := stripFences(content)
	if payload == "" {
		return Intent{}, errors.New(errors.CodeModelParseError, "empty classification output", errors.CategoryPermanent)
	}

	var raw rawIntent
	if err := unmarshalJSON([]byte(payload), &raw); err != nil {
		return Intent{}, errors.Wrap(err, errors.CodeModelParseError, "invalid classification JSON", errors.CategoryPermanent)
	}

	category := raw.Category
	if category == nil {
		category = raw.Type
	}
	switch {
	case category == nil:
		return Intent{}, invalid("missing category")
	case raw.Confidence == nil:
		return Intent{}, invalid("missing confidence")
	case raw.Complexity == nil:
		return Intent{}, invalid("missing complexity")
	}

	cat := Category(strings.ToLower(strings.TrimSpace(*category)))
	if !cat.Valid() {
		return Intent{}, invalid(fmt.Sprintf("unknown category %q", *category))
	}

	specialists := raw.SuggestedSpecialists
	if specialists == nil {
		specialists = raw.SuggestedAgents
	}
	cleaned := make([]string, 0, len(specialists))
	for _, s := range specialists {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			cleaned = append(cleaned, s)
		}
	}

	detail := raw.Detail
	if detail == "" {
		detail = raw.Details
	}

	return Intent{
		Category:             cat,
		Detail:               detail,
		Confidence:           clamp(*raw.Confidence),
		Complexity:           clamp(*raw.Complexity),
		SuggestedSpecialists: cleaned,
		RequiresKnowledge:    raw.RequiresKnowledge,
	}, nil
}

func invalid(msg string) error {
	return errors.New(errors.CodeModelInvalidResponse, msg, errors.CategoryPermanent)
}

// stripFences returns the body of the first ``` block, minus any language
// tag on the opening line, or the trimmed input when there is none.
func stripFences(content string) string {
	_, after, ok := strings.Cut(content, "```")
	if !ok {
		return strings.TrimSpace(content)
	}
	body, _, _ := strings.Cut(after, "```")
	if i := strings.IndexByte(body, '\n'); i >= 0 && !strings.ContainsAny(body[:i], "{[") {
		body = body[i+1:]
	}
	return strings.TrimSpace(body)
}

// unmarshalJSON retries once through jsonrepair on a syntax error.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		fixed, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

func clamp(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
