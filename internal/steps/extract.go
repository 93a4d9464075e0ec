package steps

import (
	"encoding/json"
	"errors"
	"strings"
)

// errNoJSON marks model output with no recognizable JSON document. Callers
// treat it as a parse failure (validation), never as a crash.
var errNoJSON = errors.New("no JSON document in model output")

// jsonBlock locates the JSON document inside free-form model output.
// Models fence their JSON in ```json blocks, <json> tags, or emit bare
// braces surrounded by prose; all three are accepted. The result is still
// untrusted and must go through decodeStrict.
func jsonBlock(text string) (string, error) {
	if idx := strings.Index(text, "<json>"); idx >= 0 {
		rest := text[idx+len("<json>"):]
		if end := strings.Index(rest, "</json>"); end >= 0 {
			return strings.TrimSpace(rest[:end]), nil
		}
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			candidate := strings.TrimSpace(rest[:end])
			if strings.HasPrefix(candidate, "{") {
				return candidate, nil
			}
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", errNoJSON
	}
	return text[start : end+1], nil
}

// decodeStrict parses model JSON into v, rejecting trailing garbage.
// Unknown fields are tolerated; models decorate their output freely.
func decodeStrict(doc string, v any) error {
	dec := json.NewDecoder(strings.NewReader(doc))
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// extractInto combines jsonBlock and decodeStrict.
func extractInto(text string, v any) error {
	doc, err := jsonBlock(text)
	if err != nil {
		return err
	}
	return decodeStrict(doc, v)
}
