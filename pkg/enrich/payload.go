// Package enrich turns loosely structured enrichment payloads, typically
// model or tool output with JSON embedded in prose, into graph operations:
// entity creation, property updates, and connections.
package enrich

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"
)

// ErrNoPayload is returned when no operations block can be extracted; the
// input is plain analysis text rather than structured output.
var ErrNoPayload = errors.New("no operations payload found")

// Payload is the operations block of an enrichment response.
type Payload struct {
	Operations []Operation `json:"operations"`
}

// Operation is one batch of graph changes.
type Operation struct {
	Action      string       `json:"action"`
	Entities    []EntitySpec `json:"entities,omitempty"`
	Connections []Connection `json:"connections,omitempty"`
	Updates     []Update     `json:"updates,omitempty"`
}

// EntitySpec describes one entity to create.
type EntitySpec struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Connection links two entities of a create operation, either by index into
// its entity list or by label.
type Connection struct {
	From         any    `json:"from"`
	To           any    `json:"to"`
	Relationship string `json:"relationship"`
}

// Update patches properties onto an existing entity identified by type and
// current label.
type Update struct {
	Type          string         `json:"type"`
	CurrentLabel  string         `json:"current_label"`
	NewProperties map[string]any `json:"new_properties"`
}

var trailingComma = regexp.MustCompile(`,(\s*[}\]])`)

// Parse extracts the operations payload from raw text. The text may wrap
// the JSON in prose or markdown fences and the JSON itself may be slightly
// malformed; candidates are the balanced top-level objects in the text,
// tried largest first, each passed through jsonrepair before decoding.
func Parse(raw string) (*Payload, error) {
	for _, candidate := range jsonCandidates(raw) {
		candidate = trailingComma.ReplaceAllString(candidate, "$1")
		if repaired, err := jsonrepair.JSONRepair(candidate); err == nil {
			candidate = repaired
		}

		var payload Payload
		if err := json.Unmarshal([]byte(candidate), &payload); err == nil && len(payload.Operations) > 0 {
			return &payload, nil
		}

		// a bare operation object without the operations wrapper
		var op Operation
		if err := json.Unmarshal([]byte(candidate), &op); err == nil && op.Action != "" {
			return &Payload{Operations: []Operation{op}}, nil
		}
	}
	return nil, ErrNoPayload
}

// jsonCandidates returns the balanced {...} spans of the text, largest
// first.
func jsonCandidates(raw string) []string {
	type span struct{ start, end int }
	var spans []span

	depth := 0
	start := -1
	inString := false
	escaped := false
	for i, r := range raw {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					spans = append(spans, span{start, i + 1})
				}
			}
		}
	}

	sort.Slice(spans, func(i, j int) bool {
		return spans[i].end-spans[i].start > spans[j].end-spans[j].start
	})
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, strings.TrimSpace(raw[s.start:s.end]))
	}
	return out
}
