package sitedoc

import (
	"encoding/json"
	"errors"
	"strings"
)

// ActionType names one site command emitted by the agent.
type ActionType string

const (
	ActionCreatePage  ActionType = "CREATE_PAGE"
	ActionResetPage   ActionType = "RESET_PAGE"
	ActionSetTemplate ActionType = "SET_TEMPLATE"
	ActionAddWidget   ActionType = "ADD_WIDGET"
)

// CommandAction is one entry in an agent action batch. Which fields are
// meaningful depends on Action.
type CommandAction struct {
	Action     ActionType             `json:"action"`
	PageName   string                 `json:"pageName,omitempty"`
	TemplateID string                 `json:"templateId,omitempty"`
	WidgetType WidgetType             `json:"widgetType,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// ErrNoActionBatch indicates the text contained no well-formed action
// array. The caller treats the full text as conversational.
var ErrNoActionBatch = errors.New("no action batch found")

// ExtractActions pulls the last well-formed action array out of free
// model text. It returns the parsed batch and the surrounding text with
// the array removed. If no candidate array parses as a batch of known
// actions, it returns ErrNoActionBatch and the text untouched; a batch
// is all-or-nothing, never a best-effort prefix.
func ExtractActions(text string) ([]CommandAction, string, error) {
	for _, cand := range findArrayCandidates(text) {
		actions, ok := parseBatch(cand.body)
		if !ok {
			continue
		}
		remainder := strings.TrimSpace(text[:cand.start] + text[cand.end:])
		return actions, remainder, nil
	}
	return nil, text, ErrNoActionBatch
}

type arrayCandidate struct {
	body       string
	start, end int
}

// findArrayCandidates scans the input for top-level bracket-delimited
// array literals, last first. It handles nested brackets and string
// escaping to identify boundaries.
//
// Iterating bytes is safe for ASCII delimiters ([, ], ", \) because
// UTF-8 guarantees ASCII bytes never appear inside a multi-byte
// sequence.
func findArrayCandidates(s string) []arrayCandidate {
	var candidates []arrayCandidate
	var depth int
	var start = -1
	var inString bool
	var escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}

		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		if b == '"' {
			inString = true
			continue
		}

		if b == '[' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if b == ']' {
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					candidates = append(candidates, arrayCandidate{
						body:  s[start : i+1],
						start: start,
						end:   i + 1,
					})
					start = -1
				}
			}
		}
	}

	// Last array in the text wins; the model tends to talk first and
	// emit the batch at the end.
	for i, j := 0, len(candidates)-1; i < j; i, j = i+1, j-1 {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	return candidates
}

// parseBatch decodes a candidate array and verifies every element is a
// recognized action.
func parseBatch(body string) ([]CommandAction, bool) {
	var actions []CommandAction
	if err := json.Unmarshal([]byte(body), &actions); err != nil {
		return nil, false
	}
	if len(actions) == 0 {
		return nil, false
	}
	for _, a := range actions {
		switch a.Action {
		case ActionCreatePage, ActionResetPage, ActionSetTemplate, ActionAddWidget:
		default:
			return nil, false
		}
	}
	return actions, true
}
